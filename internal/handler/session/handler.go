package session

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medboard/bedside-api/internal/middleware"
	"github.com/medboard/bedside-api/internal/model"
	auditService "github.com/medboard/bedside-api/internal/service/audit"
	"github.com/medboard/bedside-api/internal/service/medication"
	sessionService "github.com/medboard/bedside-api/internal/service/session"
	"github.com/medboard/bedside-api/pkg/httputil"
)

type Handler struct {
	manager *sessionService.Manager
	audit   *auditService.Service
}

func NewHandler(manager *sessionService.Manager, audit *auditService.Service) *Handler {
	return &Handler{manager: manager, audit: audit}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	sessions := rg.Group("/sessions")
	{
		sessions.POST("", h.OpenSession)
		sessions.GET("/:id", h.GetSession)
		sessions.POST("/:id/save", h.SaveSession)
		sessions.DELETE("/:id", h.DiscardSession)

		sessions.POST("/:id/admit", h.AdmitPatient)
		sessions.POST("/:id/clear", h.ClearBed)
		sessions.PUT("/:id/vitals", h.UpdateVitals)
		sessions.GET("/:id/score", h.EarlyWarningScore)

		sessions.POST("/:id/medications", h.AddMedication)
		sessions.PATCH("/:id/medications/:orderID/status", h.UpdateMedicationStatus)
		sessions.POST("/:id/medications/:orderID/repeat", h.RepeatMedication)

		sessions.POST("/:id/protocols/apply", h.ApplyProtocol)
		sessions.POST("/:id/protocols", h.SaveCurrentAsProtocol)
		sessions.DELETE("/:id/protocols/:protocolID", h.DeleteProtocol)

		sessions.POST("/:id/actions", h.AddAction)
		sessions.PATCH("/:id/actions/:actionID/toggle", h.ToggleAction)
		sessions.DELETE("/:id/actions/:actionID", h.RemoveAction)

		sessions.GET("/:id/catalog/search", h.SearchCatalog)
		sessions.POST("/:id/catalog/select", h.SelectCatalogEntry)
		sessions.GET("/:id/catalog/quick-picks", h.QuickPicks)

		sessions.GET("/:id/transfer-targets", h.TransferTargets)
		sessions.POST("/:id/transfer", h.Transfer)
	}

	rg.GET("/audit", h.AuditLog)
}

type openSessionRequest struct {
	BedID string `json:"bed_id" binding:"required,uuid"`
}

type sessionResponse struct {
	ID               uuid.UUID  `json:"id"`
	Bed              *model.Bed `json:"bed"`
	UnsavedChanges   bool       `json:"unsaved_changes"`
	TopMedications   []string   `json:"top_medications"`
	AvailableTargets int        `json:"available_targets"`
}

func (h *Handler) OpenSession(c *gin.Context) {
	var req openSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "no authenticated actor"})
		return
	}

	sess, err := h.manager.Open(c.Request.Context(), uuid.MustParse(req.BedID), actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondCreated(c, h.toResponse(sess))
}

func (h *Handler) GetSession(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	httputil.RespondWithSuccess(c, h.toResponse(sess))
}

func (h *Handler) SaveSession(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	finalized := sess.Save()
	httputil.RespondWithSuccess(c, finalized)
}

func (h *Handler) DiscardSession(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	sess.Discard()
	h.manager.Close(sess.ID)
	httputil.RespondWithSuccess(c, gin.H{"discarded": true})
}

type admitRequest struct {
	Name           string `json:"name" binding:"required"`
	Symptoms       string `json:"symptoms"`
	Allergies      string `json:"allergies"`
	TriageCategory int    `json:"triage_category" binding:"min=0,max=5"`
}

func (h *Handler) AdmitPatient(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req admitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	patient, err := sess.Admit(sessionService.AdmitRequest{
		Name:           req.Name,
		Symptoms:       req.Symptoms,
		Allergies:      req.Allergies,
		TriageCategory: req.TriageCategory,
	})
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondCreated(c, patient)
}

func (h *Handler) ClearBed(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	if err := sess.ClearBed(); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, sess.Draft())
}

type vitalsRequest struct {
	RespRate      *int     `json:"resp_rate"`
	SpO2          *int     `json:"spo2" binding:"omitempty,min=0,max=100"`
	OnOxygen      *bool    `json:"on_oxygen"`
	BPSystolic    *int     `json:"bp_systolic"`
	HeartRate     *int     `json:"heart_rate"`
	Consciousness *string  `json:"consciousness" binding:"omitempty,oneof=ALERT CVPU"`
	Temperature   *float64 `json:"temperature"`
}

func (h *Handler) UpdateVitals(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req vitalsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	vitals := model.Vitals{
		RespRate:    req.RespRate,
		SpO2:        req.SpO2,
		OnOxygen:    req.OnOxygen,
		BPSystolic:  req.BPSystolic,
		HeartRate:   req.HeartRate,
		Temperature: req.Temperature,
	}
	if req.Consciousness != nil {
		consciousness := model.Consciousness(*req.Consciousness)
		vitals.Consciousness = &consciousness
	}

	if err := sess.UpdateVitals(vitals); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"score": sess.EarlyWarning()})
}

func (h *Handler) EarlyWarningScore(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	httputil.RespondWithSuccess(c, sess.EarlyWarning())
}

type addMedicationRequest struct {
	Name  string `json:"name" binding:"required"`
	Dose  string `json:"dose"`
	Route string `json:"route"`
	Force bool   `json:"force"`
}

func (h *Handler) AddMedication(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req addMedicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	result, err := sess.AddMedication(medication.AddRequest{
		Name:  req.Name,
		Dose:  req.Dose,
		Route: req.Route,
		Force: req.Force,
	})
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	// A conflict is data, not an error: the client re-submits with
	// force after the clinician confirms.
	httputil.RespondWithSuccess(c, result)
}

type updateMedStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=GIVEN CANCELLED"`
}

func (h *Handler) UpdateMedicationStatus(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	orderID, err := uuid.Parse(c.Param("orderID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid order ID"})
		return
	}

	var req updateMedStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	changed := sess.UpdateMedicationStatus(orderID, model.MedicationStatus(req.Status))
	httputil.RespondWithSuccess(c, gin.H{"changed": changed})
}

type repeatMedicationRequest struct {
	Force bool `json:"force"`
}

func (h *Handler) RepeatMedication(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	orderID, err := uuid.Parse(c.Param("orderID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid order ID"})
		return
	}

	var req repeatMedicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	result, err := sess.RepeatMedication(orderID, req.Force)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, result)
}

type applyProtocolRequest struct {
	ProtocolID string `json:"protocol_id" binding:"required,uuid"`
	Force      bool   `json:"force"`
}

func (h *Handler) ApplyProtocol(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req applyProtocolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	result, err := sess.ApplyProtocol(uuid.MustParse(req.ProtocolID), req.Force)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, result)
}

type saveProtocolRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) SaveCurrentAsProtocol(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req saveProtocolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	protocol, err := sess.SaveCurrentAsProtocol(c.Request.Context(), req.Name)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondCreated(c, protocol)
}

func (h *Handler) DeleteProtocol(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	protocolID, err := uuid.Parse(c.Param("protocolID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid protocol ID"})
		return
	}
	if err := sess.DeleteProtocol(c.Request.Context(), protocolID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"deleted": true})
}

type addActionRequest struct {
	Type string `json:"type" binding:"required,oneof=LABS XRAY CT EKG ULTRASOUND CONSULT OTHER"`
	Name string `json:"name" binding:"required"`
	Time string `json:"time" binding:"omitempty,hhmm"`
}

func (h *Handler) AddAction(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req addActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	added, err := sess.AddAction(model.ActionType(req.Type), req.Name, req.Time)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondCreated(c, added)
}

func (h *Handler) ToggleAction(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	actionID, err := uuid.Parse(c.Param("actionID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid action ID"})
		return
	}
	changed := sess.ToggleAction(actionID)
	httputil.RespondWithSuccess(c, gin.H{"changed": changed})
}

func (h *Handler) RemoveAction(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	actionID, err := uuid.Parse(c.Param("actionID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid action ID"})
		return
	}
	changed := sess.RemoveAction(actionID)
	httputil.RespondWithSuccess(c, gin.H{"changed": changed})
}

func (h *Handler) SearchCatalog(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	query := c.Query("q")
	compound := c.Query("compound") == "true"

	matcher := sess.Matcher()
	entries := matcher.Search(query, compound)

	type searchHit struct {
		Entry        model.CatalogEntry `json:"entry"`
		MatchedAlias string             `json:"matched_alias,omitempty"`
	}
	hits := make([]searchHit, 0, len(entries))
	for _, entry := range entries {
		hits = append(hits, searchHit{
			Entry:        entry,
			MatchedAlias: matcher.ResolveSynonymMatch(entry.Name, query, compound),
		})
	}
	httputil.RespondWithSuccess(c, hits)
}

type selectCatalogRequest struct {
	Query    string `json:"query"`
	EntryID  string `json:"entry_id" binding:"required,uuid"`
	Compound bool   `json:"compound"`
}

func (h *Handler) SelectCatalogEntry(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req selectCatalogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	entryID := uuid.MustParse(req.EntryID)
	for _, entry := range sess.Inputs().Catalog {
		if entry.ID == entryID {
			httputil.RespondWithSuccess(c, sess.Matcher().Select(req.Query, entry, req.Compound))
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "catalog entry not found"})
}

func (h *Handler) QuickPicks(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	httputil.RespondWithSuccess(c, sess.Matcher().PriorityQuickPicks(sess.Inputs().Catalog))
}

func (h *Handler) TransferTargets(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	httputil.RespondWithSuccess(c, sess.TransferTargets())
}

type transferRequest struct {
	TargetBedID string `json:"target_bed_id" binding:"required,uuid"`
}

func (h *Handler) Transfer(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	if err := sess.Transfer(c.Request.Context(), uuid.MustParse(req.TargetBedID)); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"transferred": true})
}

func (h *Handler) AuditLog(c *gin.Context) {
	httputil.RespondWithSuccess(c, h.audit.Entries())
}

func (h *Handler) session(c *gin.Context) (*sessionService.Session, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid session ID"})
		return nil, false
	}
	sess, err := h.manager.Get(id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return nil, false
	}
	return sess, true
}

func (h *Handler) toResponse(sess *sessionService.Session) sessionResponse {
	return sessionResponse{
		ID:               sess.ID,
		Bed:              sess.Draft(),
		UnsavedChanges:   sess.HasUnsavedChanges(),
		TopMedications:   sess.Inputs().TopMedications,
		AvailableTargets: len(sess.TransferTargets()),
	}
}
