package models

import "strings"

// Media represents one media item known to the backend.
type Media struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// IsImage reports whether the media item is eligible for image analysis.
func (m Media) IsImage() bool {
	return strings.HasPrefix(m.ContentType, "image/")
}

// AnalysisOptions carries the caller-supplied generation flags forwarded to
// the backend on submission. None of these are computed locally.
type AnalysisOptions struct {
	Model               string  `json:"model_id,omitempty"`
	GenerateTitle       bool    `json:"generate_title"`
	GenerateDescription bool    `json:"generate_description"`
	GeneratePrompt      bool    `json:"generate_prompt"`
	GenerateCategories  bool    `json:"generate_categories"`
	GenerateTags        bool    `json:"generate_tags"`
	MaxCategories       int     `json:"max_categories,omitempty"`
	MaxTags             int     `json:"max_tags,omitempty"`
	ConfidenceThreshold float64 `json:"confidence_threshold,omitempty"`
	Scenario            string  `json:"scenario,omitempty"`
}
