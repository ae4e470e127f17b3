package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ContactInput holds the fields required to create a contact.
type ContactInput struct {
	Name    string
	Type    ContactType
	Email   string
	Mobile  string
	GSTNo   string
	City    string
	State   string
	Pincode string
}

// ContactFilter narrows ContactService.List. Active nil means both.
type ContactFilter struct {
	Type   ContactType
	Active *bool
	Query  string
	Page   int
	Limit  int
}

// ContactService manages customers and vendors.
type ContactService interface {
	Create(ctx context.Context, in ContactInput) (*Contact, error)
	Get(ctx context.Context, id int) (*Contact, error)
	List(ctx context.Context, f ContactFilter) (*Page[Contact], error)
	Archive(ctx context.Context, id int) (*Contact, error)
	Unarchive(ctx context.Context, id int) (*Contact, error)
}

type contactService struct {
	pool *pgxpool.Pool
}

// NewContactService constructs a ContactService backed by PostgreSQL.
func NewContactService(pool *pgxpool.Pool) ContactService {
	return &contactService{pool: pool}
}

const contactColumns = `id, name, type, email, mobile, gst_no, address_city, address_state,
	address_pincode, is_active, archived_at, created_at`

func scanContact(row rowScanner) (*Contact, error) {
	c := &Contact{}
	err := row.Scan(&c.ID, &c.Name, &c.Type, &c.Email, &c.Mobile, &c.GSTNo,
		&c.City, &c.State, &c.Pincode, &c.IsActive, &c.ArchivedAt, &c.CreatedAt)
	return c, err
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func (s *contactService) Create(ctx context.Context, in ContactInput) (*Contact, error) {
	const op = "create contact"
	if strings.TrimSpace(in.Name) == "" {
		return nil, invalidInput(op, "name", "name is required")
	}
	if !in.Type.Valid() {
		return nil, invalidInput(op, "type", "type must be Customer, Vendor or Both, got %q", in.Type)
	}

	c, err := scanContact(s.pool.QueryRow(ctx, `
		INSERT INTO contacts (name, type, email, mobile, gst_no, address_city, address_state, address_pincode)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+contactColumns,
		strings.TrimSpace(in.Name), in.Type, strings.TrimSpace(in.Email), optional(in.Mobile),
		optional(in.GSTNo), optional(in.City), optional(in.State), optional(in.Pincode),
	))
	if err != nil {
		return nil, fmt.Errorf("create contact %q: %w", in.Name, err)
	}
	return c, nil
}

func (s *contactService) Get(ctx context.Context, id int) (*Contact, error) {
	return getContact(ctx, s.pool, id)
}

func getContact(ctx context.Context, q querier, id int) (*Contact, error) {
	c, err := scanContact(q.QueryRow(ctx, "SELECT "+contactColumns+" FROM contacts WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("get contact", "contact", id)
		}
		return nil, fmt.Errorf("get contact %d: %w", id, err)
	}
	return c, nil
}

func (s *contactService) List(ctx context.Context, f ContactFilter) (*Page[Contact], error) {
	lf := ListFilter{Query: f.Query, Page: f.Page, Limit: f.Limit}.Normalize()

	var w whereBuilder
	if f.Type != "" {
		w.add("type = ?", f.Type)
	}
	if f.Active != nil {
		w.add("is_active = ?", *f.Active)
	}
	if lf.Query != "" {
		p := likePattern(lf.Query)
		w.add("(name ILIKE ? OR email ILIKE ? OR mobile ILIKE ?)", p, p, p)
	}

	page := &Page[Contact]{Items: []Contact{}, Page: lf.Page, Limit: lf.Limit}
	if err := s.pool.QueryRow(ctx, "SELECT count(*) FROM contacts"+w.sql(), w.args...).Scan(&page.Total); err != nil {
		return nil, fmt.Errorf("count contacts: %w", err)
	}

	query := "SELECT " + contactColumns + " FROM contacts" + w.sql() +
		" ORDER BY created_at DESC, id DESC LIMIT " + w.next(lf.Limit) + " OFFSET " + w.next(lf.Offset())
	rows, err := s.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		page.Items = append(page.Items, *c)
	}
	return page, rows.Err()
}

func (s *contactService) Archive(ctx context.Context, id int) (*Contact, error) {
	return s.setActive(ctx, id, false)
}

func (s *contactService) Unarchive(ctx context.Context, id int) (*Contact, error) {
	return s.setActive(ctx, id, true)
}

func (s *contactService) setActive(ctx context.Context, id int, active bool) (*Contact, error) {
	c, err := scanContact(s.pool.QueryRow(ctx, `
		UPDATE contacts
		SET is_active = $2, archived_at = CASE WHEN $2 THEN NULL ELSE NOW() END
		WHERE id = $1
		RETURNING `+contactColumns, id, active))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("archive contact", "contact", id)
		}
		return nil, fmt.Errorf("update contact %d: %w", id, err)
	}
	return c, nil
}
