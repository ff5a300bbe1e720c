package limits

// Request size limits shared by the JSON API handlers.
const (
	// MaxJSONBody is the largest request body the sharing API will decode.
	MaxJSONBody = 64 << 10 // 64 KB

	// MaxLoginBody bounds the dev sign-in request.
	MaxLoginBody = 4 << 10 // 4 KB

	// MaxResolveItems caps a single color resolution batch.
	MaxResolveItems = 500

	// MaxActivityPage caps the page size of the workspace activity feed.
	MaxActivityPage = 200
)
