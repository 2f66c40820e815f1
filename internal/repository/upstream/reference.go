package upstream

import (
	"context"
	"fmt"
	"strings"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
	"github.com/jwalitptl/clinic-scheduler/pkg/apiclient"
)

type referenceRepository struct {
	api API
}

func NewReferenceRepository(api API) repository.ReferenceRepository {
	return &referenceRepository{api: api}
}

// personDTO covers the field spellings the API uses for people and services.
type personDTO struct {
	ID             string  `json:"id"`
	MongoID        string  `json:"_id"`
	Name           string  `json:"name"`
	FullName       string  `json:"full_name"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	Email          string  `json:"email"`
	Phone          string  `json:"phone"`
	Status         string  `json:"status"`
	Specialty      string  `json:"specialty"`
	Specialization string  `json:"specialization"`
	Duration       int     `json:"duration"`
	Price          float64 `json:"price"`
}

func (p personDTO) id() string {
	if p.ID != "" {
		return p.ID
	}
	return p.MongoID
}

func (p personDTO) name() string {
	switch {
	case p.Name != "":
		return p.Name
	case p.FullName != "":
		return p.FullName
	}
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

func (r *referenceRepository) list(ctx context.Context, sess *model.Session, path string) ([]personDTO, error) {
	var body apiclient.RawResponse
	if err := r.api.Get(ctx, path, map[string]string{"limit": "1000"}, &body, sessionOpts(sess)...); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", strings.TrimPrefix(path, "/"), err)
	}
	items := []personDTO{}
	if _, err := decodeList(body, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *referenceRepository) ListPatients(ctx context.Context, sess *model.Session) ([]model.Patient, error) {
	items, err := r.list(ctx, sess, "/patients")
	if err != nil {
		return nil, err
	}
	out := make([]model.Patient, 0, len(items))
	for _, p := range items {
		out = append(out, model.Patient{
			ID: p.id(), ClinicID: sess.ClinicID, Name: p.name(),
			Email: p.Email, Phone: p.Phone, Status: p.Status,
		})
	}
	return out, nil
}

func (r *referenceRepository) ListDoctors(ctx context.Context, sess *model.Session) ([]model.Doctor, error) {
	items, err := r.list(ctx, sess, "/doctors")
	if err != nil {
		return nil, err
	}
	out := make([]model.Doctor, 0, len(items))
	for _, p := range items {
		specialty := p.Specialty
		if specialty == "" {
			specialty = p.Specialization
		}
		out = append(out, model.Doctor{
			ID: p.id(), ClinicID: sess.ClinicID, Name: p.name(),
			Email: p.Email, Phone: p.Phone, Specialty: specialty,
		})
	}
	return out, nil
}

func (r *referenceRepository) ListNurses(ctx context.Context, sess *model.Session) ([]model.Nurse, error) {
	items, err := r.list(ctx, sess, "/nurses")
	if err != nil {
		return nil, err
	}
	out := make([]model.Nurse, 0, len(items))
	for _, p := range items {
		out = append(out, model.Nurse{ID: p.id(), ClinicID: sess.ClinicID, Name: p.name(), Phone: p.Phone})
	}
	return out, nil
}

func (r *referenceRepository) ListServices(ctx context.Context, sess *model.Session) ([]model.Service, error) {
	items, err := r.list(ctx, sess, "/services")
	if err != nil {
		return nil, err
	}
	out := make([]model.Service, 0, len(items))
	for _, p := range items {
		out = append(out, model.Service{
			ID: p.id(), ClinicID: sess.ClinicID, Name: p.name(),
			Duration: p.Duration, Price: p.Price,
		})
	}
	return out, nil
}
