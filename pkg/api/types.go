package api

const (
	StatusOK    = "ok"
	StatusError = "error"

	HealthMessage = "Clasificador activo"
)

type Ranked struct {
	Familia      string  `json:"familia"`
	Probabilidad float64 `json:"probabilidad"`
}

type PredictResponse struct {
	FamiliaPredicha string   `json:"familia_predicha"`
	Confianza       float64  `json:"confianza"`
	ConfianzaPct    string   `json:"confianza_pct"`
	Top3            []Ranked `json:"top3"`
	Status          string   `json:"status"`
}

// ErrorResponse is the failure body. Status is absent on validation errors.
type ErrorResponse struct {
	Error  string `json:"error"`
	Status string `json:"status,omitempty"`
}

type FamiliesResponse struct {
	Familias []string `json:"familias"`
	Total    int      `json:"total"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Mensaje string `json:"mensaje"`
}
