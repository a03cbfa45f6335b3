package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"draftflow/audit"
	"draftflow/auth"
	"draftflow/dispute"
	"draftflow/document"
	"draftflow/lawyer"
	"draftflow/payout"
	"draftflow/pricing"
	"draftflow/review"
)

func (s *Server) handleRegister(c echo.Context) error {
	var req auth.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	user, err := s.deps.Auth.Register(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toUserResponse(*user))
}

func (s *Server) handleLogin(c echo.Context) error {
	var req auth.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	result, err := s.deps.Auth.Login(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"token": result.Token,
		"user":  toUserResponse(result.User),
	})
}

func (s *Server) handleMe(c echo.Context) error {
	ident := identityFrom(c)
	user, err := s.deps.Auth.GetUserByID(c.Request().Context(), ident.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toUserResponse(*user))
}

func (s *Server) handleProfileUpdate(c echo.Context) error {
	var req auth.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	user, err := s.deps.Auth.UpdateProfile(c.Request().Context(), identityFrom(c), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toUserResponse(*user))
}

func (s *Server) handleUserList(c echo.Context) error {
	filters := auth.UserFilters{
		Role:      auth.Role(c.QueryParam("role")),
		KYCStatus: auth.KYCStatus(c.QueryParam("kycStatus")),
		Page:      queryInt(c, "page"),
		PageSize:  queryInt(c, "pageSize"),
	}

	users, total, err := s.deps.Auth.ListUsers(c.Request().Context(), identityFrom(c), filters)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toPage(users, total, toUserResponse))
}

func (s *Server) handleUserStatus(c echo.Context) error {
	var req auth.StatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	user, err := s.deps.Auth.SetUserStatus(c.Request().Context(), identityFrom(c), c.Param("id"), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toUserResponse(*user))
}

func (s *Server) handleDocumentCreate(c echo.Context) error {
	var req struct {
		Title      string         `json:"title"`
		TemplateID string         `json:"templateId"`
		Fields     map[string]any `json:"fields"`
		Content    string         `json:"content"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	doc, err := s.deps.Documents.Create(c.Request().Context(), identityFrom(c), document.CreateParams{
		Title:            req.Title,
		TemplateID:       req.TemplateID,
		Fields:           req.Fields,
		GeneratedContent: req.Content,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toDocumentResponse(doc))
}

func (s *Server) handleDocumentGenerate(c echo.Context) error {
	var req struct {
		TemplateID string         `json:"templateId"`
		Title      string         `json:"title"`
		Fields     map[string]any `json:"fields"`
		Tier       string         `json:"tier"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.TemplateID == "" || req.Fields == nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "templateId and fields are required"})
	}

	doc, err := s.deps.Documents.Generate(c.Request().Context(), identityFrom(c), document.GenerateParams{
		TemplateID: req.TemplateID,
		Title:      req.Title,
		Fields:     req.Fields,
		Tier:       pricing.Tier(req.Tier),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toDocumentResponse(doc))
}

func (s *Server) handleDocumentList(c echo.Context) error {
	filters := document.Filters{
		Status:     document.Status(c.QueryParam("status")),
		TemplateID: c.QueryParam("templateId"),
		Page:       queryInt(c, "page"),
		PageSize:   queryInt(c, "pageSize"),
	}

	docs, total, err := s.deps.Documents.List(c.Request().Context(), identityFrom(c), filters)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toPage(docs, total, toDocumentResponse))
}

func (s *Server) handleDocumentGet(c echo.Context) error {
	doc, err := s.deps.Documents.Get(c.Request().Context(), identityFrom(c), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toDocumentResponse(doc))
}

func (s *Server) handleDocumentUpdate(c echo.Context) error {
	var req struct {
		Title   *string        `json:"title"`
		Fields  map[string]any `json:"fields"`
		Content *string        `json:"content"`
		Status  *string        `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	params := document.UpdateParams{
		Title:            req.Title,
		Fields:           req.Fields,
		GeneratedContent: req.Content,
	}
	if req.Status != nil {
		status := document.Status(*req.Status)
		params.Status = &status
	}

	doc, err := s.deps.Documents.Update(c.Request().Context(), identityFrom(c), c.Param("id"), params)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toDocumentResponse(doc))
}

func (s *Server) handleDocumentDelete(c echo.Context) error {
	if err := s.deps.Documents.Delete(c.Request().Context(), identityFrom(c), c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleReviewCreate(c echo.Context) error {
	var req review.CreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.DocumentID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "documentId is required"})
	}

	rev, err := s.deps.Reviews.Create(c.Request().Context(), identityFrom(c), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toReviewResponse(rev, time.Now()))
}

func (s *Server) handleReviewList(c echo.Context) error {
	filters := review.Filters{
		Status:   review.Status(c.QueryParam("status")),
		Page:     queryInt(c, "page"),
		PageSize: queryInt(c, "pageSize"),
	}

	reviews, total, err := s.deps.Reviews.List(c.Request().Context(), identityFrom(c), filters)
	if err != nil {
		return writeError(c, err)
	}
	now := time.Now()
	return c.JSON(http.StatusOK, toPage(reviews, total, func(r review.Review) reviewResponse {
		return toReviewResponse(r, now)
	}))
}

func (s *Server) handleReviewGet(c echo.Context) error {
	rev, err := s.deps.Reviews.Get(c.Request().Context(), identityFrom(c), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toReviewResponse(rev, time.Now()))
}

func (s *Server) handleReviewStatus(c echo.Context) error {
	var req review.StatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	rev, err := s.deps.Reviews.UpdateStatus(c.Request().Context(), identityFrom(c), c.Param("id"), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toReviewResponse(rev, time.Now()))
}

func (s *Server) handlePayoutCreate(c echo.Context) error {
	var req payout.CreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	p, err := s.deps.Payouts.Create(c.Request().Context(), identityFrom(c), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toPayoutResponse(p))
}

func (s *Server) handlePayoutList(c echo.Context) error {
	filters := payout.Filters{
		Status:   payout.Status(c.QueryParam("status")),
		LawyerID: c.QueryParam("lawyerId"),
		Page:     queryInt(c, "page"),
		PageSize: queryInt(c, "pageSize"),
	}

	payouts, total, err := s.deps.Payouts.List(c.Request().Context(), identityFrom(c), filters)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toPage(payouts, total, toPayoutResponse))
}

func (s *Server) handlePayoutGet(c echo.Context) error {
	p, err := s.deps.Payouts.Get(c.Request().Context(), identityFrom(c), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toPayoutResponse(p))
}

func (s *Server) handlePayoutProcess(c echo.Context) error {
	var req payout.ProcessRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	p, err := s.deps.Payouts.Process(c.Request().Context(), identityFrom(c), c.Param("id"), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toPayoutResponse(p))
}

func (s *Server) handleLawyerList(c echo.Context) error {
	minRating := 0.0
	if v := c.QueryParam("minRating"); v != "" {
		minRating, _ = strconv.ParseFloat(v, 64)
	}
	filters := lawyer.Filters{
		Specialization: c.QueryParam("specialization"),
		MinRating:      minRating,
		Page:           queryInt(c, "page"),
		PageSize:       queryInt(c, "pageSize"),
	}

	profiles, total, err := s.deps.Lawyers.List(c.Request().Context(), filters)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toPage(profiles, total, toLawyerResponse))
}

func (s *Server) handleLawyerGet(c echo.Context) error {
	p, err := s.deps.Lawyers.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toLawyerResponse(p))
}

func (s *Server) handleLawyerStats(c echo.Context) error {
	stats, err := s.deps.Lawyers.Stats(c.Request().Context(), identityFrom(c).UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"totalReviews":     stats.TotalReviews,
		"completedReviews": stats.CompletedReviews,
		"pendingReviews":   stats.PendingReviews,
		"totalEarnings":    stats.TotalEarnings,
		"rating":           stats.Rating,
	})
}

func (s *Server) handleNotificationList(c echo.Context) error {
	var isRead *bool
	if v := c.QueryParam("isRead"); v != "" {
		b := v == "true"
		isRead = &b
	}

	records, err := s.deps.Notifications.ListForUser(c.Request().Context(), identityFrom(c).UserID, isRead)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toPage(records, len(records), toNotificationResponse))
}

func (s *Server) handleNotificationRead(c echo.Context) error {
	rec, err := s.deps.Notifications.MarkRead(c.Request().Context(), c.Param("id"), identityFrom(c).UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toNotificationResponse(rec))
}

func (s *Server) handleNotificationReadAll(c echo.Context) error {
	count, err := s.deps.Notifications.MarkAllRead(c.Request().Context(), identityFrom(c).UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int64{"updated": count})
}

func (s *Server) handleDisputeCreate(c echo.Context) error {
	var req struct {
		ReviewID string `json:"reviewId"`
		Reason   string `json:"reason"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.ReviewID == "" || req.Reason == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "reviewId and reason are required"})
	}

	rec, err := s.deps.Disputes.Create(c.Request().Context(), identityFrom(c), req.ReviewID, req.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toDisputeResponse(rec))
}

func (s *Server) handleDisputeList(c echo.Context) error {
	records, err := s.deps.Disputes.List(c.Request().Context(), identityFrom(c), c.QueryParam("reviewId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toPage(records, len(records), toDisputeResponse))
}

func (s *Server) handleDisputeResolve(c echo.Context) error {
	var req struct {
		Status     string `json:"status"`
		Resolution string `json:"resolution"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	rec, err := s.deps.Disputes.Resolve(c.Request().Context(), identityFrom(c), c.Param("id"), dispute.Status(req.Status), req.Resolution)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toDisputeResponse(rec))
}

func (s *Server) handleAuditList(c echo.Context) error {
	filters := audit.Filters{
		ActorID:  c.QueryParam("actorId"),
		Resource: c.QueryParam("resource"),
		Page:     queryInt(c, "page"),
		PageSize: queryInt(c, "pageSize"),
	}

	entries, err := s.deps.Audits.List(c.Request().Context(), filters)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toPage(entries, len(entries), toAuditResponse))
}

func queryInt(c echo.Context, name string) int {
	n, _ := strconv.Atoi(c.QueryParam(name))
	return n
}
