package kimi

import "github.com/muran-prog/kimi-go/core"

// Wire-level request and response shapes. The vendor API is private and
// versioned outside this library's control; these mirror what the web client
// sends today.

type createChatRequest struct {
	Name       string   `json:"name"`
	BornFrom   string   `json:"born_from"`
	KimiplusID string   `json:"kimiplus_id"`
	IsExample  bool     `json:"is_example"`
	Source     string   `json:"source"`
	Tags       []string `json:"tags"`
}

type createChatResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// preSignResponse is the upload slot returned by the negotiate phase.
type preSignRequest struct {
	Name   string `json:"name"`
	Action string `json:"action"`
}

type preSignResponse struct {
	URL        string `json:"url"`
	ObjectName string `json:"object_name"`
	FileID     string `json:"file_id"`
}

type registerFileRequest struct {
	Name       string `json:"name"`
	ObjectName string `json:"object_name"`
	Type       string `json:"type"`
	FileID     string `json:"file_id"`
}

type registerFileResponse struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	ObjectName string         `json:"object_name"`
	Type       string         `json:"type"`
	Meta       map[string]any `json:"meta"`
}

type parseProcessRequest struct {
	IDs []string `json:"ids"`
}

type sendMessageRequest struct {
	Messages          []core.Message `json:"messages"`
	History           []core.Message `json:"history"`
	KimiplusID        string         `json:"kimiplus_id"`
	Model             string         `json:"model"`
	UseSearch         bool           `json:"use_search"`
	Refs              []string       `json:"refs"`
	Extend            extendOptions  `json:"extend"`
	SceneLabels       []string       `json:"scene_labels"`
	UseDeepResearch   bool           `json:"use_deep_research"`
	UseSemanticMemory bool           `json:"use_semantic_memory"`
}

type extendOptions struct {
	Sidebar bool `json:"sidebar"`
}

// streamEnvelope is the JSON shape of one stream logical unit. The event
// field is the discriminant; the remaining fields are populated per variant.
type streamEnvelope struct {
	Event         string         `json:"event"`
	Text          string         `json:"text"`
	Phase         string         `json:"phase"`
	SearchType    string         `json:"search_type"`
	Hallucination map[string]any `json:"hallucination"`
}

// apiErrorBody is the error payload shape returned by the API.
type apiErrorBody struct {
	ErrorType string `json:"error_type"`
	Message   string `json:"message"`
}
