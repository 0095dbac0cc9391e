package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/clearsite/clearsite/pkg/authority"
	"github.com/clearsite/clearsite/pkg/store"
)

// ----- Product Types -----

type productRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"priceCents"`
	ImageURL    string `json:"imageUrl"`
}

type productResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"priceCents"`
	ImageURL    string `json:"imageUrl,omitempty"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

func productToResponse(p *store.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		PriceCents:  p.PriceCents,
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.store.ListProducts()
	if err != nil {
		writeInternalError(w, r, err, "Failed to list products")
		return
	}

	result := make([]productResponse, 0, len(products))
	for _, p := range products {
		result = append(result, productToResponse(p))
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.GetProduct(r.PathValue("id"))
	if err != nil {
		writeError(w, r, http.StatusNotFound, "Product not found")
		return
	}
	writeJSON(w, http.StatusOK, productToResponse(p))
}

func (s *Server) handleAddProduct(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireTier(w, r, authority.TierAdmin); !ok {
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	if req.Name == "" {
		writeError(w, r, http.StatusBadRequest, "Name is required")
		return
	}

	p := &store.Product{
		ID:          "prd_" + uuid.New().String()[:UUIDShortLength],
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		ImageURL:    req.ImageURL,
	}
	if err := s.store.AddProduct(p); err != nil {
		writeInternalError(w, r, err, "Failed to add product")
		return
	}

	// Re-read to pick up store-assigned timestamps.
	p, err := s.store.GetProduct(p.ID)
	if err != nil {
		writeInternalError(w, r, err, "Failed to add product")
		return
	}
	writeJSON(w, http.StatusCreated, productToResponse(p))
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireTier(w, r, authority.TierAdmin); !ok {
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}

	p := &store.Product{
		ID:          r.PathValue("id"),
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		ImageURL:    req.ImageURL,
	}
	if err := s.store.UpdateProduct(p); err != nil {
		if errors.Is(err, store.ErrContentNotFound) {
			writeError(w, r, http.StatusNotFound, "Product not found")
			return
		}
		writeInternalError(w, r, err, "Failed to update product")
		return
	}

	p, err := s.store.GetProduct(p.ID)
	if err != nil {
		writeInternalError(w, r, err, "Failed to update product")
		return
	}
	writeJSON(w, http.StatusOK, productToResponse(p))
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireTier(w, r, authority.TierAdmin); !ok {
		return
	}

	if err := s.store.DeleteProduct(r.PathValue("id")); err != nil {
		writeError(w, r, http.StatusNotFound, "Product not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ----- Service Types -----

type serviceRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type serviceResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon,omitempty"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

func serviceToResponse(sv *store.Service) serviceResponse {
	return serviceResponse{
		ID:          sv.ID,
		Title:       sv.Title,
		Description: sv.Description,
		Icon:        sv.Icon,
		CreatedAt:   sv.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   sv.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	services, err := s.store.ListServices()
	if err != nil {
		writeInternalError(w, r, err, "Failed to list services")
		return
	}

	result := make([]serviceResponse, 0, len(services))
	for _, sv := range services {
		result = append(result, serviceToResponse(sv))
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleAddService(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireTier(w, r, authority.TierAdmin); !ok {
		return
	}

	var req serviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	if req.Title == "" {
		writeError(w, r, http.StatusBadRequest, "Title is required")
		return
	}

	sv := &store.Service{
		ID:          "svc_" + uuid.New().String()[:UUIDShortLength],
		Title:       req.Title,
		Description: req.Description,
		Icon:        req.Icon,
	}
	if err := s.store.AddService(sv); err != nil {
		writeInternalError(w, r, err, "Failed to add service")
		return
	}
	writeJSON(w, http.StatusCreated, serviceToResponse(sv))
}

func (s *Server) handleUpdateService(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireTier(w, r, authority.TierAdmin); !ok {
		return
	}

	var req serviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}

	sv := &store.Service{
		ID:          r.PathValue("id"),
		Title:       req.Title,
		Description: req.Description,
		Icon:        req.Icon,
	}
	if err := s.store.UpdateService(sv); err != nil {
		if errors.Is(err, store.ErrContentNotFound) {
			writeError(w, r, http.StatusNotFound, "Service not found")
			return
		}
		writeInternalError(w, r, err, "Failed to update service")
		return
	}
	writeJSON(w, http.StatusOK, serviceToResponse(sv))
}

func (s *Server) handleDeleteService(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireTier(w, r, authority.TierAdmin); !ok {
		return
	}

	if err := s.store.DeleteService(r.PathValue("id")); err != nil {
		writeError(w, r, http.StatusNotFound, "Service not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ----- Project Types -----

type projectRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	CompletedAt string `json:"completedAt"`
}

type projectResponse struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ImageURL    string  `json:"imageUrl,omitempty"`
	CompletedAt *string `json:"completedAt,omitempty"`
	CreatedAt   string  `json:"createdAt"`
}

func projectToResponse(p *store.Project) projectResponse {
	resp := projectResponse{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
	}
	if p.CompletedAt != nil {
		t := p.CompletedAt.UTC().Format(time.RFC3339)
		resp.CompletedAt = &t
	}
	return resp
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.ListProjects()
	if err != nil {
		writeInternalError(w, r, err, "Failed to list projects")
		return
	}

	result := make([]projectResponse, 0, len(projects))
	for _, p := range projects {
		result = append(result, projectToResponse(p))
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.GetProject(r.PathValue("id"))
	if err != nil {
		writeError(w, r, http.StatusNotFound, "Project not found")
		return
	}
	writeJSON(w, http.StatusOK, projectToResponse(p))
}

func (s *Server) handleAddProject(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireTier(w, r, authority.TierAdmin); !ok {
		return
	}

	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	if req.Title == "" {
		writeError(w, r, http.StatusBadRequest, "Title is required")
		return
	}

	p := &store.Project{
		ID:          "prj_" + uuid.New().String()[:UUIDShortLength],
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	}
	if req.CompletedAt != "" {
		t, err := time.Parse(time.RFC3339, req.CompletedAt)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "Invalid completedAt timestamp")
			return
		}
		p.CompletedAt = &t
	}
	if err := s.store.AddProject(p); err != nil {
		writeInternalError(w, r, err, "Failed to add project")
		return
	}

	p, err := s.store.GetProject(p.ID)
	if err != nil {
		writeInternalError(w, r, err, "Failed to add project")
		return
	}
	writeJSON(w, http.StatusCreated, projectToResponse(p))
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireTier(w, r, authority.TierAdmin); !ok {
		return
	}

	if err := s.store.DeleteProject(r.PathValue("id")); err != nil {
		writeError(w, r, http.StatusNotFound, "Project not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ----- Testimonial Types -----

type testimonialRequest struct {
	Author     string `json:"author"`
	AuthorRole string `json:"authorRole"`
	Quote      string `json:"quote"`
	Rating     int    `json:"rating"`
}

type testimonialResponse struct {
	ID         string `json:"id"`
	Author     string `json:"author"`
	AuthorRole string `json:"authorRole,omitempty"`
	Quote      string `json:"quote"`
	Rating     int    `json:"rating"`
	CreatedAt  string `json:"createdAt"`
}

func testimonialToResponse(t *store.Testimonial) testimonialResponse {
	return testimonialResponse{
		ID:         t.ID,
		Author:     t.Author,
		AuthorRole: t.AuthorRole,
		Quote:      t.Quote,
		Rating:     t.Rating,
		CreatedAt:  t.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (s *Server) handleListTestimonials(w http.ResponseWriter, r *http.Request) {
	testimonials, err := s.store.ListTestimonials()
	if err != nil {
		writeInternalError(w, r, err, "Failed to list testimonials")
		return
	}

	result := make([]testimonialResponse, 0, len(testimonials))
	for _, t := range testimonials {
		result = append(result, testimonialToResponse(t))
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleAddTestimonial(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireTier(w, r, authority.TierAdmin); !ok {
		return
	}

	var req testimonialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	if req.Author == "" || req.Quote == "" {
		writeError(w, r, http.StatusBadRequest, "Author and quote are required")
		return
	}
	if req.Rating < 0 || req.Rating > 5 {
		writeError(w, r, http.StatusBadRequest, "Rating must be between 0 and 5")
		return
	}

	t := &store.Testimonial{
		ID:         "tst_" + uuid.New().String()[:UUIDShortLength],
		Author:     req.Author,
		AuthorRole: req.AuthorRole,
		Quote:      req.Quote,
		Rating:     req.Rating,
	}
	if err := s.store.AddTestimonial(t); err != nil {
		writeInternalError(w, r, err, "Failed to add testimonial")
		return
	}
	writeJSON(w, http.StatusCreated, testimonialToResponse(t))
}

func (s *Server) handleDeleteTestimonial(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireTier(w, r, authority.TierAdmin); !ok {
		return
	}

	if err := s.store.DeleteTestimonial(r.PathValue("id")); err != nil {
		writeError(w, r, http.StatusNotFound, "Testimonial not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ----- FAQ Types -----

type faqRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Position int    `json:"position"`
}

type faqResponse struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Position int    `json:"position"`
}

func faqToResponse(f *store.FAQ) faqResponse {
	return faqResponse{
		ID:       f.ID,
		Question: f.Question,
		Answer:   f.Answer,
		Position: f.Position,
	}
}

func (s *Server) handleListFAQs(w http.ResponseWriter, r *http.Request) {
	faqs, err := s.store.ListFAQs()
	if err != nil {
		writeInternalError(w, r, err, "Failed to list FAQs")
		return
	}

	result := make([]faqResponse, 0, len(faqs))
	for _, f := range faqs {
		result = append(result, faqToResponse(f))
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleAddFAQ(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireTier(w, r, authority.TierAdmin); !ok {
		return
	}

	var req faqRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	if req.Question == "" || req.Answer == "" {
		writeError(w, r, http.StatusBadRequest, "Question and answer are required")
		return
	}

	f := &store.FAQ{
		ID:       "faq_" + uuid.New().String()[:UUIDShortLength],
		Question: req.Question,
		Answer:   req.Answer,
		Position: req.Position,
	}
	if err := s.store.AddFAQ(f); err != nil {
		writeInternalError(w, r, err, "Failed to add FAQ")
		return
	}
	writeJSON(w, http.StatusCreated, faqToResponse(f))
}

func (s *Server) handleUpdateFAQ(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireTier(w, r, authority.TierAdmin); !ok {
		return
	}

	var req faqRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}

	f := &store.FAQ{
		ID:       r.PathValue("id"),
		Question: req.Question,
		Answer:   req.Answer,
		Position: req.Position,
	}
	if err := s.store.UpdateFAQ(f); err != nil {
		if errors.Is(err, store.ErrContentNotFound) {
			writeError(w, r, http.StatusNotFound, "FAQ not found")
			return
		}
		writeInternalError(w, r, err, "Failed to update FAQ")
		return
	}
	writeJSON(w, http.StatusOK, faqToResponse(f))
}

func (s *Server) handleDeleteFAQ(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireTier(w, r, authority.TierAdmin); !ok {
		return
	}

	if err := s.store.DeleteFAQ(r.PathValue("id")); err != nil {
		writeError(w, r, http.StatusNotFound, "FAQ not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
