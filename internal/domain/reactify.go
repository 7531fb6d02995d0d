package domain

// ReactifyJob is a single-page HTML to React conversion job.
type ReactifyJob struct {
	ID                  string    `json:"id"`
	JobID               string    `json:"job_id"`
	PageURL             string    `json:"page_url"`
	Status              JobStatus `json:"status"`
	FileSizeMB          *float64  `json:"file_size_mb,omitempty"`
	ComponentsGenerated *int      `json:"components_generated,omitempty"`
	CreatedAt           string    `json:"created_at"`
	ErrorMessage        string    `json:"error_message,omitempty"`
	DownloadURL         string    `json:"download_url,omitempty"`
}

// ConversionOptions tunes the generated React project.
type ConversionOptions struct {
	Framework         string `json:"framework"`
	Styling           string `json:"styling"`
	TypeScript        bool   `json:"typescript"`
	OptimizationLevel string `json:"optimization_level"`
	IncludeTests      bool   `json:"include_tests"`
}

// DefaultConversionOptions returns the options preselected in the dashboard.
func DefaultConversionOptions() ConversionOptions {
	return ConversionOptions{
		Framework:         "nextjs",
		Styling:           "css_modules",
		TypeScript:        true,
		OptimizationLevel: "standard",
		IncludeTests:      true,
	}
}

// ReactifyConvertRequest is the body of POST /reactify/convert.
type ReactifyConvertRequest struct {
	PageURL           string            `json:"page_url"`
	ConversionOptions ConversionOptions `json:"conversion_options"`
}

// ReactifyResponse is the body returned by POST /reactify/convert.
type ReactifyResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	JobID         string `json:"job_id,omitempty"`
	EstimatedTime string `json:"estimated_time,omitempty"`
}

// ReactifyFilename is the name a completed conversion is saved under.
func ReactifyFilename(jobID string) string {
	return "react-project-" + jobID + ".zip"
}
