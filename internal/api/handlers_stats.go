package api

import (
	"net/http"

	"github.com/dgallion1/examscope/internal/provider"
)

type statusResponse struct {
	GeminiAvailable    bool                      `json:"gemini_available"`
	OpenAIAvailable    bool                      `json:"openai_available"`
	AnthropicAvailable bool                      `json:"anthropic_available"`
	DefaultProvider    string                    `json:"default_provider"`
	AvailableProviders []string                  `json:"available_providers"`
	OCRAvailable       bool                      `json:"ocr_available"`
	OCREngine          string                    `json:"ocr_engine"`
	Providers          []provider.ProviderStatus `json:"providers"`
}

func (s *Server) statusBody(st provider.Status) statusResponse {
	return statusResponse{
		GeminiAvailable:    st.IsAvailable(provider.NameGemini),
		OpenAIAvailable:    st.IsAvailable(provider.NameOpenAI),
		AnthropicAvailable: st.IsAvailable(provider.NameAnthropic),
		DefaultProvider:    st.Default,
		AvailableProviders: st.Available,
		OCRAvailable:       s.analyzer.OCRAvailable(),
		OCREngine:          s.analyzer.OCREngine(),
		Providers:          st.Providers,
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.statusBody(s.providers.Status()))
}

func (s *Server) handleRefreshProviders(w http.ResponseWriter, r *http.Request) {
	st := s.providers.Refresh()
	s.log.Info("providers refreshed", "default", st.Default, "available", st.Available)
	writeJSON(w, http.StatusOK, s.statusBody(st))
}

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"stats": s.stats.SnapshotAll(),
	})
}
