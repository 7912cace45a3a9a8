package models

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status string `json:"status,omitempty"`
}

type Token struct {
	Token string `json:"token"`
}

type UploadResponse struct {
	Imported int `json:"imported"`
}
