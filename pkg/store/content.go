// Marketing content methods: products, services, projects,
// testimonials, and FAQs. Plain data-access glue for the public site
// and the admin surface.
package store

import (
	"database/sql"
	"fmt"
	"time"
)

// ErrContentNotFound is returned when a content row does not exist.
var ErrContentNotFound = fmt.Errorf("content not found")

// Product is a catalog entry shown on the public site.
type Product struct {
	ID          string
	Name        string
	Description string
	PriceCents  int64
	ImageURL    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Service is an offered service shown on the public site.
type Service struct {
	ID          string
	Title       string
	Description string
	Icon        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Project is a portfolio entry.
type Project struct {
	ID          string
	Title       string
	Description string
	ImageURL    string
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Testimonial is a customer quote.
type Testimonial struct {
	ID         string
	Author     string
	AuthorRole string
	Quote      string
	Rating     int
	CreatedAt  time.Time
}

// FAQ is a question/answer pair ordered by position.
type FAQ struct {
	ID        string
	Question  string
	Answer    string
	Position  int
	CreatedAt time.Time
}

// ----- Product Methods -----

// AddProduct creates a new product.
func (s *Store) AddProduct(p *Product) error {
	_, err := s.db.Exec(
		`INSERT INTO products (id, name, description, price_cents, image_url) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.PriceCents, p.ImageURL,
	)
	if err != nil {
		return fmt.Errorf("failed to add product: %w", err)
	}
	return nil
}

// GetProduct retrieves a product by id.
func (s *Store) GetProduct(id string) (*Product, error) {
	row := s.db.QueryRow(
		`SELECT id, name, description, price_cents, image_url, created_at, updated_at FROM products WHERE id = ?`,
		id,
	)
	var p Product
	var createdAt, updatedAt int64
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.ImageURL, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrContentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}
	p.CreatedAt = time.Unix(createdAt, 0)
	p.UpdatedAt = time.Unix(updatedAt, 0)
	return &p, nil
}

// ListProducts returns all products ordered by name.
func (s *Store) ListProducts() ([]*Product, error) {
	rows, err := s.db.Query(
		`SELECT id, name, description, price_cents, image_url, created_at, updated_at FROM products ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		var p Product
		var createdAt, updatedAt int64
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.ImageURL, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		p.CreatedAt = time.Unix(createdAt, 0)
		p.UpdatedAt = time.Unix(updatedAt, 0)
		products = append(products, &p)
	}
	return products, rows.Err()
}

// UpdateProduct updates a product's details.
func (s *Store) UpdateProduct(p *Product) error {
	result, err := s.db.Exec(
		`UPDATE products SET name = ?, description = ?, price_cents = ?, image_url = ?, updated_at = ? WHERE id = ?`,
		p.Name, p.Description, p.PriceCents, p.ImageURL, time.Now().Unix(), p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrContentNotFound
	}
	return nil
}

// DeleteProduct removes a product by id.
func (s *Store) DeleteProduct(id string) error {
	result, err := s.db.Exec(`DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrContentNotFound
	}
	return nil
}

// ----- Service Methods -----

// AddService creates a new service entry.
func (s *Store) AddService(sv *Service) error {
	_, err := s.db.Exec(
		`INSERT INTO services (id, title, description, icon) VALUES (?, ?, ?, ?)`,
		sv.ID, sv.Title, sv.Description, sv.Icon,
	)
	if err != nil {
		return fmt.Errorf("failed to add service: %w", err)
	}
	return nil
}

// ListServices returns all services ordered by title.
func (s *Store) ListServices() ([]*Service, error) {
	rows, err := s.db.Query(
		`SELECT id, title, description, icon, created_at, updated_at FROM services ORDER BY title`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	var services []*Service
	for rows.Next() {
		var sv Service
		var createdAt, updatedAt int64
		if err := rows.Scan(&sv.ID, &sv.Title, &sv.Description, &sv.Icon, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		sv.CreatedAt = time.Unix(createdAt, 0)
		sv.UpdatedAt = time.Unix(updatedAt, 0)
		services = append(services, &sv)
	}
	return services, rows.Err()
}

// UpdateService updates a service's details.
func (s *Store) UpdateService(sv *Service) error {
	result, err := s.db.Exec(
		`UPDATE services SET title = ?, description = ?, icon = ?, updated_at = ? WHERE id = ?`,
		sv.Title, sv.Description, sv.Icon, time.Now().Unix(), sv.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update service: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrContentNotFound
	}
	return nil
}

// DeleteService removes a service by id.
func (s *Store) DeleteService(id string) error {
	result, err := s.db.Exec(`DELETE FROM services WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete service: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrContentNotFound
	}
	return nil
}

// ----- Project Methods -----

// AddProject creates a new project entry.
func (s *Store) AddProject(p *Project) error {
	var completedAt any
	if p.CompletedAt != nil {
		completedAt = p.CompletedAt.Unix()
	}
	_, err := s.db.Exec(
		`INSERT INTO projects (id, title, description, image_url, completed_at) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Description, p.ImageURL, completedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add project: %w", err)
	}
	return nil
}

// GetProject retrieves a project by id.
func (s *Store) GetProject(id string) (*Project, error) {
	row := s.db.QueryRow(
		`SELECT id, title, description, image_url, completed_at, created_at, updated_at FROM projects WHERE id = ?`,
		id,
	)
	var p Project
	var completedAt sql.NullInt64
	var createdAt, updatedAt int64
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.ImageURL, &completedAt, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrContentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan project: %w", err)
	}
	if completedAt.Valid {
		t := time.Unix(completedAt.Int64, 0)
		p.CompletedAt = &t
	}
	p.CreatedAt = time.Unix(createdAt, 0)
	p.UpdatedAt = time.Unix(updatedAt, 0)
	return &p, nil
}

// ListProjects returns all projects, most recently created first.
func (s *Store) ListProjects() ([]*Project, error) {
	rows, err := s.db.Query(
		`SELECT id, title, description, image_url, completed_at, created_at, updated_at FROM projects ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		var p Project
		var completedAt sql.NullInt64
		var createdAt, updatedAt int64
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.ImageURL, &completedAt, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		if completedAt.Valid {
			t := time.Unix(completedAt.Int64, 0)
			p.CompletedAt = &t
		}
		p.CreatedAt = time.Unix(createdAt, 0)
		p.UpdatedAt = time.Unix(updatedAt, 0)
		projects = append(projects, &p)
	}
	return projects, rows.Err()
}

// DeleteProject removes a project by id.
func (s *Store) DeleteProject(id string) error {
	result, err := s.db.Exec(`DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrContentNotFound
	}
	return nil
}

// ----- Testimonial Methods -----

// AddTestimonial creates a new testimonial.
func (s *Store) AddTestimonial(t *Testimonial) error {
	_, err := s.db.Exec(
		`INSERT INTO testimonials (id, author, author_role, quote, rating) VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.Author, t.AuthorRole, t.Quote, t.Rating,
	)
	if err != nil {
		return fmt.Errorf("failed to add testimonial: %w", err)
	}
	return nil
}

// ListTestimonials returns all testimonials, most recent first.
func (s *Store) ListTestimonials() ([]*Testimonial, error) {
	rows, err := s.db.Query(
		`SELECT id, author, author_role, quote, rating, created_at FROM testimonials ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list testimonials: %w", err)
	}
	defer rows.Close()

	var testimonials []*Testimonial
	for rows.Next() {
		var t Testimonial
		var createdAt int64
		if err := rows.Scan(&t.ID, &t.Author, &t.AuthorRole, &t.Quote, &t.Rating, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan testimonial: %w", err)
		}
		t.CreatedAt = time.Unix(createdAt, 0)
		testimonials = append(testimonials, &t)
	}
	return testimonials, rows.Err()
}

// DeleteTestimonial removes a testimonial by id.
func (s *Store) DeleteTestimonial(id string) error {
	result, err := s.db.Exec(`DELETE FROM testimonials WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete testimonial: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrContentNotFound
	}
	return nil
}

// ----- FAQ Methods -----

// AddFAQ creates a new FAQ entry.
func (s *Store) AddFAQ(f *FAQ) error {
	_, err := s.db.Exec(
		`INSERT INTO faqs (id, question, answer, position) VALUES (?, ?, ?, ?)`,
		f.ID, f.Question, f.Answer, f.Position,
	)
	if err != nil {
		return fmt.Errorf("failed to add FAQ: %w", err)
	}
	return nil
}

// ListFAQs returns all FAQ entries in display order.
func (s *Store) ListFAQs() ([]*FAQ, error) {
	rows, err := s.db.Query(
		`SELECT id, question, answer, position, created_at FROM faqs ORDER BY position, created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list FAQs: %w", err)
	}
	defer rows.Close()

	var faqs []*FAQ
	for rows.Next() {
		var f FAQ
		var createdAt int64
		if err := rows.Scan(&f.ID, &f.Question, &f.Answer, &f.Position, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan FAQ: %w", err)
		}
		f.CreatedAt = time.Unix(createdAt, 0)
		faqs = append(faqs, &f)
	}
	return faqs, rows.Err()
}

// UpdateFAQ updates an FAQ's question, answer, and position.
func (s *Store) UpdateFAQ(f *FAQ) error {
	result, err := s.db.Exec(
		`UPDATE faqs SET question = ?, answer = ?, position = ? WHERE id = ?`,
		f.Question, f.Answer, f.Position, f.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update FAQ: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrContentNotFound
	}
	return nil
}

// DeleteFAQ removes an FAQ entry by id.
func (s *Store) DeleteFAQ(id string) error {
	result, err := s.db.Exec(`DELETE FROM faqs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete FAQ: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrContentNotFound
	}
	return nil
}
