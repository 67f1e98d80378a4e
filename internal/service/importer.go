package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"coop-backoffice/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

type ImportPartnerStore interface {
	Create(ctx context.Context, p *domain.Partner) error
	FindByFullName(ctx context.Context, fullName string) (*domain.Partner, error)
}

// ImportService loads partners and loans from the cooperative's spreadsheets.
// Partner rows map one-to-one to new records (no merge, duplicates possible);
// loan rows are matched to a partner by exact "First Last" name and go through
// the same atomic create-with-schedule path as a manually entered loan.
type ImportService struct {
	partners ImportPartnerStore
	loans    *LoanService
}

func NewImportService(partners ImportPartnerStore, loans *LoanService) *ImportService {
	return &ImportService{partners: partners, loans: loans}
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func columnIndex(idx map[string]int, names ...string) int {
	for _, n := range names {
		if i, ok := idx[n]; ok {
			return i
		}
	}
	return -1
}

func sheetRows(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, domain.NewValidationError("file", "not a readable xlsx file")
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, domain.NewValidationError("file", "spreadsheet has no data rows")
	}
	return rows, nil
}

// ImportPartners reads the first sheet and registers one partner per row.
// Returns the number imported plus an audit line for every skipped row.
func (s *ImportService) ImportPartners(ctx context.Context, r io.Reader) (int, []string, error) {
	rows, err := sheetRows(r)
	if err != nil {
		return 0, nil, err
	}

	idx := headerIndex(rows[0])
	firstCol := columnIndex(idx, "nombre", "name", "first name")
	lastCol := columnIndex(idx, "apellido", "last name")
	if firstCol < 0 || lastCol < 0 {
		return 0, nil, domain.NewValidationError("file", "missing Nombre/Apellido columns")
	}
	idCol := columnIndex(idx, "identificacion", "identification")
	aliasCol := columnIndex(idx, "alias")

	var (
		imported int
		skipped  []string
	)
	for n, row := range rows[1:] {
		first := cell(row, firstCol)
		last := cell(row, lastCol)
		if first == "" || last == "" {
			skipped = append(skipped, fmt.Sprintf("row %d: missing name, skipped", n+2))
			continue
		}

		in := PartnerInput{FirstName: first, LastName: last}
		if v := cell(row, idCol); v != "" {
			in.IdentificationNumber = &v
		}
		if v := cell(row, aliasCol); v != "" {
			in.Alias = &v
		}

		partner := &domain.Partner{
			FirstName:            in.FirstName,
			LastName:             in.LastName,
			IdentificationNumber: in.IdentificationNumber,
			Alias:                in.Alias,
		}
		partner.ID = uuid.NewString()
		if err := s.partners.Create(ctx, partner); err != nil {
			return imported, skipped, fmt.Errorf("row %d: %w", n+2, err)
		}
		imported++
	}

	return imported, skipped, nil
}

// ImportLoans reads the first sheet and grants one loan per row that matches
// an existing partner by full name. Unmatched or malformed rows are skipped
// and reported, not failed on.
func (s *ImportService) ImportLoans(ctx context.Context, r io.Reader) (int, []string, error) {
	rows, err := sheetRows(r)
	if err != nil {
		return 0, nil, err
	}

	idx := headerIndex(rows[0])
	nameCol := columnIndex(idx, "socio", "partner", "nombre completo")
	amountCol := columnIndex(idx, "monto", "amount")
	if nameCol < 0 || amountCol < 0 {
		return 0, nil, domain.NewValidationError("file", "missing Socio/Monto columns")
	}
	termCol := columnIndex(idx, "plazo", "cuotas", "term")
	typeCol := columnIndex(idx, "tipo", "type")
	rateCol := columnIndex(idx, "interes", "interest")
	dateCol := columnIndex(idx, "fecha", "date")

	var (
		imported int
		skipped  []string
	)
	for n, row := range rows[1:] {
		fullName := cell(row, nameCol)
		if fullName == "" {
			skipped = append(skipped, fmt.Sprintf("row %d: empty partner name, skipped", n+2))
			continue
		}

		partner, err := s.partners.FindByFullName(ctx, fullName)
		if errors.Is(err, domain.ErrNotFound) {
			skipped = append(skipped, fmt.Sprintf("row %d: no partner named %q, skipped", n+2, fullName))
			continue
		}
		if err != nil {
			return imported, skipped, err
		}

		amount, err := decimal.NewFromString(cell(row, amountCol))
		if err != nil {
			skipped = append(skipped, fmt.Sprintf("row %d: bad amount %q, skipped", n+2, cell(row, amountCol)))
			continue
		}

		term := 0
		if v := cell(row, termCol); v != "" {
			term, err = strconv.Atoi(v)
			if err != nil {
				skipped = append(skipped, fmt.Sprintf("row %d: bad term %q, skipped", n+2, v))
				continue
			}
		}

		loanType := domain.LoanTypeStandard
		if v := strings.ToLower(cell(row, typeCol)); v == string(domain.LoanTypeCustom) {
			loanType = domain.LoanTypeCustom
		}

		in := CreateLoanInput{
			PartnerID:  partner.ID,
			Type:       loanType,
			Amount:     amount,
			TermMonths: term,
		}
		if v := cell(row, rateCol); v != "" {
			rate, err := decimal.NewFromString(v)
			if err != nil {
				skipped = append(skipped, fmt.Sprintf("row %d: bad interest %q, skipped", n+2, v))
				continue
			}
			if loanType == domain.LoanTypeStandard {
				in.InterestRate = rate
			} else {
				in.FixedInterest = rate
			}
		}
		if v := cell(row, dateCol); v != "" {
			start, err := parseImportDate(v)
			if err != nil {
				skipped = append(skipped, fmt.Sprintf("row %d: bad date %q, skipped", n+2, v))
				continue
			}
			in.StartDate = start
		}

		if _, err := s.loans.Grant(ctx, in); err != nil {
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				skipped = append(skipped, fmt.Sprintf("row %d: %s, skipped", n+2, verr.Error()))
				continue
			}
			return imported, skipped, fmt.Errorf("row %d: %w", n+2, err)
		}
		imported++
	}

	return imported, skipped, nil
}

func parseImportDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "02/01/2006", "2/1/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
