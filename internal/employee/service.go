// Package employee manages the owner's signer address book, including the
// CSV bulk import.
package employee

import (
	"context"
	"fmt"
	"io"
	"net/mail"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/docuflow/docuflow/internal/apperr"
	"github.com/docuflow/docuflow/internal/models"
	"github.com/docuflow/docuflow/internal/repository"
)

type Service struct {
	employees repository.EmployeeRepository
}

func NewService(employees repository.EmployeeRepository) *Service {
	return &Service{employees: employees}
}

func (s *Service) List(ctx context.Context, ownerID int64) ([]models.Employee, error) {
	return s.employees.List(ctx, ownerID)
}

func (s *Service) Create(ctx context.Context, ownerID int64, name, email string) (*models.Employee, error) {
	if err := validate(name, email); err != nil {
		return nil, err
	}
	emp, err := s.employees.Create(ctx, &models.Employee{
		UserID: ownerID,
		Name:   strings.TrimSpace(name),
		Email:  strings.TrimSpace(email),
	})
	if err != nil {
		return nil, fmt.Errorf("create employee: %w", err)
	}
	return emp, nil
}

func (s *Service) Delete(ctx context.Context, ownerID, id int64) error {
	if err := s.employees.Delete(ctx, ownerID, id); err != nil {
		return apperr.NotFound("employee not found")
	}
	return nil
}

// csvRow is the import wire format. Headers match case-insensitively, so
// "Name,Email" and "name,email" both work.
type csvRow struct {
	Name  string `csv:"name"`
	Email string `csv:"email"`
}

type ImportResult struct {
	Imported int               `json:"imported"`
	Skipped  []SkippedRow      `json:"skipped,omitempty"`
	Rows     []models.Employee `json:"rows"`
}

type SkippedRow struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// Import reads a CSV of (name, email) rows and creates one employee per
// valid row. Bad rows are collected, never aborting the rest of the file.
func (s *Service) Import(ctx context.Context, ownerID int64, r io.Reader) (*ImportResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apperr.Validation("csv could not be read", map[string]string{"file": err.Error()})
	}
	var rows []csvRow
	if err := gocsv.UnmarshalBytes(lowercaseHeader(data), &rows); err != nil {
		return nil, apperr.Validation("csv could not be parsed", map[string]string{"file": err.Error()})
	}
	if len(rows) == 0 {
		return nil, apperr.Validation("csv contains no rows", map[string]string{"file": "empty"})
	}

	res := &ImportResult{}
	seen := make(map[string]bool)
	for i, row := range rows {
		line := i + 2 // 1-based, after the header
		email := strings.TrimSpace(row.Email)
		if err := validate(row.Name, email); err != nil {
			res.Skipped = append(res.Skipped, SkippedRow{Line: line, Reason: err.Error()})
			continue
		}
		if seen[strings.ToLower(email)] {
			res.Skipped = append(res.Skipped, SkippedRow{Line: line, Reason: "duplicate email in file"})
			continue
		}
		seen[strings.ToLower(email)] = true

		emp, err := s.employees.Create(ctx, &models.Employee{
			UserID: ownerID,
			Name:   strings.TrimSpace(row.Name),
			Email:  email,
		})
		if err != nil {
			res.Skipped = append(res.Skipped, SkippedRow{Line: line, Reason: err.Error()})
			continue
		}
		res.Imported++
		res.Rows = append(res.Rows, *emp)
	}
	return res, nil
}

// lowercaseHeader folds the header line so "Name,Email" and "name,email"
// both match the column tags.
func lowercaseHeader(data []byte) []byte {
	end := len(data)
	if i := strings.IndexByte(string(data), '\n'); i >= 0 {
		end = i
	}
	out := append([]byte(nil), data...)
	copy(out[:end], strings.ToLower(string(data[:end])))
	return out
}

func validate(name, email string) error {
	fields := make(map[string]string)
	if strings.TrimSpace(name) == "" {
		fields["name"] = "required"
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(email)); err != nil {
		fields["email"] = "must be a valid email address"
	}
	if len(fields) > 0 {
		return apperr.Validation("invalid employee", fields)
	}
	return nil
}
