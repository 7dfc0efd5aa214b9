package dto

// JoinRequest is the body of POST /api/v1/members/join.
type JoinRequest struct {
	Username string `json:"username" binding:"required"`

	// Mode is "v1" (log failure fails the join) or "v2" (log failure is
	// recovered). Defaults to "v2".
	Mode string `json:"mode" binding:"omitempty,oneof=v1 v2"`

	// Layout selects the transactional wiring. Defaults to "log_requires_new".
	Layout string `json:"layout" binding:"omitempty,oneof=repositories service all log_requires_new"`
}

// JoinResponse reports the join result and what was durably stored.
type JoinResponse struct {
	Username    string `json:"username"`
	Mode        string `json:"mode"`
	Layout      string `json:"layout"`
	MemberSaved bool   `json:"memberSaved"`
	LogSaved    bool   `json:"logSaved"`
}

// MemberResponse is the body of GET /api/v1/members/:username.
type MemberResponse struct {
	Username string `json:"username"`
	Member   bool   `json:"member"`
	Log      bool   `json:"log"`
}
