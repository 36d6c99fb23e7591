package main

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/wimarka-uic/lakra/internal/admin"
	"github.com/wimarka-uic/lakra/internal/annotations"
	"github.com/wimarka-uic/lakra/internal/auth"
	"github.com/wimarka-uic/lakra/internal/config"
	"github.com/wimarka-uic/lakra/internal/database"
	"github.com/wimarka-uic/lakra/internal/evaluations"
	"github.com/wimarka-uic/lakra/internal/middleware"
	"github.com/wimarka-uic/lakra/internal/mtquality"
	"github.com/wimarka-uic/lakra/internal/proficiency"
	"github.com/wimarka-uic/lakra/internal/registration"
	"github.com/wimarka-uic/lakra/internal/sentences"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	auth.Configure(cfg.JWTSecret, cfg.TokenTTL)

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Services
	authService := auth.NewService(db)
	profStore := proficiency.NewStore(db)
	profService := proficiency.NewService(profStore)
	wizardStore := registration.NewStore(profService, profService, authService, cfg.SecondsPerQuestion)

	// Handlers
	authHandler := auth.NewHandler(db, authService)
	regHandler := registration.NewHandler(wizardStore)
	profHandler := proficiency.NewHandler(profService, profStore)
	sentenceHandler := sentences.NewHandler(db, sentences.NewStore(db))
	annotationHandler := annotations.NewHandler(db, annotations.NewStore(db), cfg.UploadDir)
	evaluationHandler := evaluations.NewHandler(db, evaluations.NewStore(db))
	mtHandler := mtquality.NewHandler(db, mtquality.NewStore(db))
	adminHandler := admin.NewHandler(db)

	guard := middleware.NewGuard(db)

	// Setup router
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	// Public routes
	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Registration wizard (public, pre-account)
	wizard := api.PathPrefix("/registration/wizard").Subrouter()
	wizard.HandleFunc("", regHandler.Create).Methods("POST")
	wizard.HandleFunc("/{id}", regHandler.Get).Methods("GET")
	wizard.HandleFunc("/{id}", regHandler.Abandon).Methods("DELETE")
	wizard.HandleFunc("/{id}/role", regHandler.SelectRole).Methods("POST")
	wizard.HandleFunc("/{id}/details", regHandler.UpdateDetails).Methods("PUT")
	wizard.HandleFunc("/{id}/languages/toggle", regHandler.ToggleLanguage).Methods("POST")
	wizard.HandleFunc("/{id}/preferred-language", regHandler.SetPreferredLanguage).Methods("PUT")
	wizard.HandleFunc("/{id}/next", regHandler.Next).Methods("POST")
	wizard.HandleFunc("/{id}/back", regHandler.Back).Methods("POST")
	wizard.HandleFunc("/{id}/answer", regHandler.SelectAnswer).Methods("POST")
	wizard.HandleFunc("/{id}/question/next", regHandler.NextQuestion).Methods("POST")
	wizard.HandleFunc("/{id}/question/previous", regHandler.PreviousQuestion).Methods("POST")
	wizard.HandleFunc("/{id}/submit", regHandler.Submit).Methods("POST")

	// Question fetch is public: the wizard's test step runs pre-account.
	api.HandleFunc("/proficiency-questions", profHandler.GetByLanguages).Methods("GET")

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware)

	protected.HandleFunc("/me", authHandler.GetCurrentUser).Methods("GET")
	protected.HandleFunc("/me", authHandler.UpdateProfile).Methods("PUT")
	protected.HandleFunc("/me/guidelines-seen", authHandler.MarkGuidelinesSeen).Methods("PUT")

	protected.HandleFunc("/proficiency-questions/submit", profHandler.Submit).Methods("POST")
	protected.HandleFunc("/proficiency-questions/my-results", profHandler.MyResults).Methods("GET")

	protected.HandleFunc("/onboarding-tests", profHandler.StartOnboardingTest).Methods("POST")
	protected.HandleFunc("/onboarding-tests", profHandler.ListOnboardingTests).Methods("GET")
	protected.HandleFunc("/onboarding-tests/{id}", profHandler.GetOnboardingTest).Methods("GET")
	protected.HandleFunc("/onboarding-tests/{id}/submit", profHandler.SubmitOnboardingTest).Methods("POST")

	protected.HandleFunc("/sentences", sentenceHandler.List).Methods("GET")
	protected.HandleFunc("/sentences/next", sentenceHandler.NextUnannotated).Methods("GET")
	protected.HandleFunc("/sentences/unannotated", sentenceHandler.Unannotated).Methods("GET")
	protected.HandleFunc("/sentences/{id}", sentenceHandler.Get).Methods("GET")
	protected.HandleFunc("/sentences/{id}/annotations", annotationHandler.ListBySentence).Methods("GET")

	protected.HandleFunc("/annotations", annotationHandler.Create).Methods("POST")
	protected.HandleFunc("/annotations/mine", annotationHandler.ListMine).Methods("GET")
	protected.HandleFunc("/annotations/voice", annotationHandler.UploadVoice).Methods("POST")
	protected.HandleFunc("/annotations/{id}", annotationHandler.Get).Methods("GET")
	protected.HandleFunc("/annotations/{id}", annotationHandler.Update).Methods("PUT")
	protected.HandleFunc("/annotations/{id}", annotationHandler.Delete).Methods("DELETE")
	protected.HandleFunc("/annotations/{id}/render", annotationHandler.Render).Methods("GET")

	// Evaluator routes
	evaluator := protected.PathPrefix("/evaluations").Subrouter()
	evaluator.Use(guard.RequireEvaluator)
	evaluator.HandleFunc("", evaluationHandler.Create).Methods("POST")
	evaluator.HandleFunc("/mine", evaluationHandler.ListMine).Methods("GET")
	evaluator.HandleFunc("/pending", evaluationHandler.Pending).Methods("GET")
	evaluator.HandleFunc("/stats", evaluationHandler.Stats).Methods("GET")
	evaluator.HandleFunc("/{id}", evaluationHandler.Get).Methods("GET")
	evaluator.HandleFunc("/{id}", evaluationHandler.Update).Methods("PUT")

	mt := protected.PathPrefix("/mt-assessments").Subrouter()
	mt.Use(guard.RequireEvaluator)
	mt.HandleFunc("", mtHandler.Create).Methods("POST")
	mt.HandleFunc("/mine", mtHandler.ListMine).Methods("GET")
	mt.HandleFunc("/pending", mtHandler.Pending).Methods("GET")
	mt.HandleFunc("/stats", mtHandler.Stats).Methods("GET")
	mt.HandleFunc("/sentence/{id}", mtHandler.ListBySentence).Methods("GET")
	mt.HandleFunc("/{id}", mtHandler.Get).Methods("GET")
	mt.HandleFunc("/{id}", mtHandler.Update).Methods("PUT")

	// Admin routes
	adminRoutes := protected.PathPrefix("/admin").Subrouter()
	adminRoutes.Use(guard.RequireAdmin)
	adminRoutes.HandleFunc("/stats", adminHandler.Stats).Methods("GET")
	adminRoutes.HandleFunc("/users", adminHandler.ListUsers).Methods("GET")
	adminRoutes.HandleFunc("/users/{id}/toggle-evaluator", adminHandler.ToggleEvaluator).Methods("PUT")
	adminRoutes.HandleFunc("/users/{id}/toggle-active", adminHandler.ToggleActive).Methods("PUT")
	adminRoutes.HandleFunc("/sentences", sentenceHandler.AdminList).Methods("GET")
	adminRoutes.HandleFunc("/sentences", sentenceHandler.Create).Methods("POST")
	adminRoutes.HandleFunc("/sentences/bulk", sentenceHandler.BulkCreate).Methods("POST")
	adminRoutes.HandleFunc("/sentences/counts", sentenceHandler.Counts).Methods("GET")
	adminRoutes.HandleFunc("/sentences/{id}", sentenceHandler.Delete).Methods("DELETE")
	adminRoutes.HandleFunc("/annotations", annotationHandler.AdminList).Methods("GET")
	adminRoutes.HandleFunc("/mt-assessments", mtHandler.AdminList).Methods("GET")
	adminRoutes.HandleFunc("/proficiency-questions", profHandler.List).Methods("GET")
	adminRoutes.HandleFunc("/proficiency-questions", profHandler.Create).Methods("POST")
	adminRoutes.HandleFunc("/proficiency-questions/{id}", profHandler.Update).Methods("PUT")
	adminRoutes.HandleFunc("/proficiency-questions/{id}", profHandler.Delete).Methods("DELETE")

	// Uploaded voice recordings
	r.PathPrefix("/uploads/voice/").Handler(
		http.StripPrefix("/uploads/voice/", http.FileServer(http.Dir(cfg.UploadDir))))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	handler := c.Handler(r)

	log.Printf("Server starting on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
