package output

import (
	"time"

	"github.com/carolin-violet/violet-reminder/internal/logging"
	"github.com/carolin-violet/violet-reminder/internal/model"
)

// JSONFormatter provides JSON-specific formatting.
type JSONFormatter struct {
	*Formatter
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(f *Formatter) *JSONFormatter {
	return &JSONFormatter{Formatter: f}
}

// LocationOutput is a punch location in JSON output.
type LocationOutput struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	Radius    float64 `json:"radius"`
	Address   string  `json:"address,omitempty"`
	Source    string  `json:"source"`
	UpdatedAt string  `json:"updated_at,omitempty"`
}

// NewLocationOutput builds a LocationOutput. cfg is the stored override and
// may be nil.
func NewLocationOutput(region model.GeofenceRegion, source string, cfg *model.UserGeofenceConfig) *LocationOutput {
	out := &LocationOutput{
		Longitude: region.Longitude,
		Latitude:  region.Latitude,
		Radius:    region.Radius,
		Source:    source,
	}
	if cfg != nil {
		out.Address = cfg.AddressOrEmpty()
		if cfg.UpdatedAt > 0 {
			out.UpdatedAt = cfg.Updated().Format(time.RFC3339)
		}
	}
	return out
}

// GeofenceStatusOutput is the geofence status in JSON output.
type GeofenceStatusOutput struct {
	State           string         `json:"state"`
	Active          bool           `json:"active"`
	Monitoring      bool           `json:"monitoring"`
	MonitoringSince string         `json:"monitoring_since,omitempty"`
	Location        LocationOutput `json:"location"`
}

// TodoOutput is a to-do item in JSON output.
type TodoOutput struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	DueDate   *string `json:"due_date"`
	DueStatus string  `json:"due_status"`
	CreatedAt string  `json:"created_at"`
}

// NewTodoOutput creates a TodoOutput from an item.
func NewTodoOutput(item model.TodoItem, now time.Time) *TodoOutput {
	return &TodoOutput{
		ID:        item.ID,
		Title:     item.Title,
		DueDate:   item.DueDate,
		DueStatus: string(item.DueStatusAt(now)),
		CreatedAt: time.UnixMilli(item.CreatedAt).UTC().Format(time.RFC3339),
	}
}

// TodosResponse is the todo list in JSON output.
type TodosResponse struct {
	Todos      []*TodoOutput `json:"todos"`
	TotalCount int           `json:"total_count"`
}

// NewTodosResponse creates a TodosResponse in the order given.
func NewTodosResponse(items []model.TodoItem, now time.Time) *TodosResponse {
	outputs := make([]*TodoOutput, len(items))
	for i, item := range items {
		outputs[i] = NewTodoOutput(item, now)
	}
	return &TodosResponse{Todos: outputs, TotalCount: len(items)}
}

// WebhookOutput is a webhook in JSON output. The URL is masked.
type WebhookOutput struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	URL       string `json:"url"`
	Enabled   bool   `json:"enabled"`
	CreatedAt string `json:"created_at"`
	LastUsed  string `json:"last_used,omitempty"`
	LastError string `json:"last_error,omitempty"`
}

// NewWebhookOutput creates a WebhookOutput from a webhook.
func NewWebhookOutput(w *model.Webhook) *WebhookOutput {
	out := &WebhookOutput{
		Name:      w.Name,
		Type:      w.Type,
		URL:       logging.MaskURL(w.URL),
		Enabled:   w.Enabled,
		CreatedAt: w.CreatedAt.UTC().Format(time.RFC3339),
		LastError: w.LastError,
	}
	if !w.LastUsed.IsZero() {
		out.LastUsed = w.LastUsed.UTC().Format(time.RFC3339)
	}
	return out
}

// StatusResponse is a plain status reply.
type StatusResponse struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
}

// ErrorResponse represents an error in JSON.
type ErrorResponse struct {
	Status  string `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// PrintStatus outputs a status reply.
func (j *JSONFormatter) PrintStatus(status string, data any) error {
	return j.JSON(StatusResponse{Status: status, Data: data})
}

// PrintError outputs an error in JSON format.
func (j *JSONFormatter) PrintError(status, errMsg, message string) error {
	return j.JSON(ErrorResponse{
		Status:  status,
		Error:   errMsg,
		Message: message,
	})
}

// PrintTodos outputs the todo list.
func (j *JSONFormatter) PrintTodos(items []model.TodoItem, now time.Time) error {
	return j.JSON(NewTodosResponse(items, now))
}
