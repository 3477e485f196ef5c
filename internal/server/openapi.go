package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "MountainQuiz API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Mountain search, community submissions and quiz backend.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /api/mountains
	getMountains, _ := r.NewOperationContext(http.MethodGet, "/api/mountains")
	getMountains.SetSummary("Search mountains")
	getMountains.SetDescription("Searches all providers by name with kana-variant matching. Query params: name, limit.")
	getMountains.AddRespStructure(SearchResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getMountains.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(getMountains)

	// GET /api/mountains/{id}
	getMountain, _ := r.NewOperationContext(http.MethodGet, "/api/mountains/{id}")
	getMountain.SetSummary("Get mountain")
	getMountain.SetDescription("Looks up one mountain by id or name, falling back across providers.")
	getMountain.AddRespStructure(MountainDetail{}, openapi.WithHTTPStatus(http.StatusOK))
	getMountain.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getMountain)

	// GET /api/mountains/{id}/forecast
	getForecast, _ := r.NewOperationContext(http.MethodGet, "/api/mountains/{id}/forecast")
	getForecast.SetSummary("Mountain weather forecast")
	getForecast.SetDescription("Daily forecast at the mountain's coordinates. Query param: days (1-7).")
	getForecast.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK), openapi.WithContentType("application/json"))
	getForecast.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	getForecast.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnprocessableEntity))
	_ = r.AddOperation(getForecast)

	// POST /api/submissions
	postSubmission, _ := r.NewOperationContext(http.MethodPost, "/api/submissions")
	postSubmission.SetSummary("Submit a mountain")
	postSubmission.SetDescription("Stores a community submission for moderation.")
	postSubmission.AddReqStructure(SubmissionRequest{})
	postSubmission.AddRespStructure(SubmissionResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	postSubmission.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postSubmission)

	// POST /api/quiz
	postQuiz, _ := r.NewOperationContext(http.MethodPost, "/api/quiz")
	postQuiz.SetSummary("Build a quiz")
	postQuiz.SetDescription("Builds and stores a fresh question set from the mountain pool plus generated trivia.")
	postQuiz.AddRespStructure(BuildQuizResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	postQuiz.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(postQuiz)

	// POST /api/quiz/start
	postStart, _ := r.NewOperationContext(http.MethodPost, "/api/quiz/start")
	postStart.SetSummary("Start a quiz session")
	postStart.SetDescription("Starts a session against the most recently built set and returns the first question.")
	postStart.AddReqStructure(StartQuizRequest{})
	postStart.AddRespStructure(StartQuizResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postStart.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(postStart)

	// POST /api/quiz/answer
	postAnswer, _ := r.NewOperationContext(http.MethodPost, "/api/quiz/answer")
	postAnswer.SetSummary("Answer the current question")
	postAnswer.SetDescription("Records one answer. On the final question the response carries the score summary.")
	postAnswer.AddReqStructure(AnswerQuizRequest{})
	postAnswer.AddRespStructure(AnswerQuizResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postAnswer.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postAnswer.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	_ = r.AddOperation(postAnswer)

	// POST /api/quiz/quit
	postQuit, _ := r.NewOperationContext(http.MethodPost, "/api/quiz/quit")
	postQuit.SetSummary("Quit a quiz session")
	postQuit.SetDescription("Abandons a session. The partial tally is returned but no score is persisted.")
	postQuit.AddReqStructure(QuitQuizRequest{})
	postQuit.AddRespStructure(QuizSummary{}, openapi.WithHTTPStatus(http.StatusOK))
	postQuit.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postQuit)

	// GET /api/quiz/ranking
	getRanking, _ := r.NewOperationContext(http.MethodGet, "/api/quiz/ranking")
	getRanking.SetSummary("Score ranking")
	getRanking.SetDescription("Returns the best scores, highest first.")
	getRanking.AddRespStructure([]RankingEntry{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getRanking)

	// POST /api/admin/login
	postLogin, _ := r.NewOperationContext(http.MethodPost, "/api/admin/login")
	postLogin.SetSummary("Admin login")
	postLogin.SetDescription("Authenticate with username and password. Sets admin_session cookie.")
	postLogin.AddReqStructure(AdminLoginRequest{})
	postLogin.AddRespStructure(AdminMeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postLogin)

	// POST /api/admin/logout
	postLogout, _ := r.NewOperationContext(http.MethodPost, "/api/admin/logout")
	postLogout.SetSummary("Admin logout")
	postLogout.SetDescription("Clears admin session and cookie.")
	postLogout.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postLogout)

	// GET /api/admin/me
	getMe, _ := r.NewOperationContext(http.MethodGet, "/api/admin/me")
	getMe.SetSummary("Current admin")
	getMe.SetDescription("Returns the currently authenticated admin. Requires admin_session cookie.")
	getMe.AddRespStructure(AdminMeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getMe.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getMe)

	// GET /api/admin/submissions
	listSubs, _ := r.NewOperationContext(http.MethodGet, "/api/admin/submissions")
	listSubs.SetSummary("List submissions")
	listSubs.SetDescription("Lists submissions by status (pending by default). Requires admin_session cookie.")
	listSubs.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK), openapi.WithContentType("application/json"))
	listSubs.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(listSubs)

	// POST /api/admin/submissions/{id}/approve
	approveSub, _ := r.NewOperationContext(http.MethodPost, "/api/admin/submissions/{id}/approve")
	approveSub.SetSummary("Approve submission")
	approveSub.SetDescription("Marks a submission approved; it becomes visible to search. Requires admin_session cookie.")
	approveSub.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK), openapi.WithContentType("application/json"))
	approveSub.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(approveSub)

	// POST /api/admin/submissions/{id}/reject
	rejectSub, _ := r.NewOperationContext(http.MethodPost, "/api/admin/submissions/{id}/reject")
	rejectSub.SetSummary("Reject submission")
	rejectSub.SetDescription("Marks a submission rejected. Requires admin_session cookie.")
	rejectSub.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK), openapi.WithContentType("application/json"))
	rejectSub.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(rejectSub)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		json.NewEncoder(w).Encode(spec)
	}
}
