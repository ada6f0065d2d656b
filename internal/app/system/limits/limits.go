// internal/app/system/limits/limits.go
package limits

// Field length limits, counted in characters after sanitizing.
const (
	MaxTitle        = 200
	MaxDescription  = 10000
	MaxFeedbackNote = 1000
	MaxName         = 200
	MaxShortText    = 500
	MaxCategories   = 20
)

// MaxJSONBody bounds request bodies decoded by handlers.
const MaxJSONBody = 1 << 20 // 1 MB
