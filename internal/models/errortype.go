package models

// ErrorType classifies a highlighted translation error by severity and kind.
type ErrorType string

const (
	MinorSyntactic ErrorType = "MI_ST"
	MinorSemantic  ErrorType = "MI_SE"
	MajorSyntactic ErrorType = "MA_ST"
	MajorSemantic  ErrorType = "MA_SE"
)

var ValidErrorTypes = map[ErrorType]bool{
	MinorSyntactic: true,
	MinorSemantic:  true,
	MajorSyntactic: true,
	MajorSemantic:  true,
}

// errorTypeInfo is a direct lookup table keyed by the enum. Display styling is
// resolved here rather than by matching class-name strings.
type errorTypeInfo struct {
	Label string
	Style string
}

var errorTypes = map[ErrorType]errorTypeInfo{
	MinorSyntactic: {Label: "Minor Syntactic Error", Style: "bg-yellow-200 border-yellow-400"},
	MinorSemantic:  {Label: "Minor Semantic Error", Style: "bg-orange-200 border-orange-400"},
	MajorSyntactic: {Label: "Major Syntactic Error", Style: "bg-red-200 border-red-400"},
	MajorSemantic:  {Label: "Major Semantic Error", Style: "bg-purple-200 border-purple-400"},
}

// Label returns the human-readable name for the error type.
func (e ErrorType) Label() string {
	if info, ok := errorTypes[e]; ok {
		return info.Label
	}
	return "Unknown Error Type"
}

// Style returns the display style token for the error type.
func (e ErrorType) Style() string {
	if info, ok := errorTypes[e]; ok {
		return info.Style
	}
	return "bg-gray-200 border-gray-400"
}
