package domain

// Principal is the authenticated caller of a workflow command.
// Identity resolution happens outside the engine; the middleware extracts this
// from the bearer token and it is passed explicitly into every service call.
type Principal struct {
	UserID string `json:"userID"`
	Email  string `json:"email"`
}
