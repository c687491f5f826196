package server

import "net/http"

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Listing creation flow
	mux.HandleFunc("/", s.app.FormHandler.IndexHandler)
	mux.HandleFunc("/analyze", s.app.FormHandler.AnalyzeHandler)
	mux.HandleFunc("/choose", s.app.FormHandler.ChooseHandler)

	// Posting jobs
	mux.HandleFunc("/post_listing", s.app.JobHandler.PostListingHandler)
	mux.HandleFunc("/job/", s.app.JobHandler.JobPageHandler)
	mux.HandleFunc("/submit_magic_link/", s.app.JobHandler.SubmitMagicLinkHandler)

	// Live job log stream
	mux.HandleFunc("/ws/", s.app.LogHandler.HandleLogStream)

	return mux
}
