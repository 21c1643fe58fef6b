/*
Copyright 2025 Crewmark Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package crewmark

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/texttheater/golang-levenshtein/levenshtein"
	"go.opentelemetry.io/otel"

	"github.com/crewmark/crewmark/config"
	"github.com/crewmark/crewmark/internal/apierror"
	"github.com/crewmark/crewmark/model"
)

var reconciliationTracer = otel.Tracer("crewmark.reconciliation")

// PayoutReconciliationResult reports how an external payout report lines up
// against in-flight withdrawals.
type PayoutReconciliationResult struct {
	Matched   []model.PayoutMatch  `json:"matched"`
	Unmatched []model.PayoutRecord `json:"unmatched"`
}

// payoutReportColumns are the required headers of an uploaded payout report.
var payoutReportColumns = []string{"reference", "account_holder", "amount", "paid_at"}

// createPayoutColumnMap associates the report's header names with their
// indices. Header matching is case-insensitive and tolerant of spaces.
func createPayoutColumnMap(headers []string) (map[string]int, error) {
	columnMap := make(map[string]int, len(headers))
	for i, header := range headers {
		normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(header)), " ", "_")
		columnMap[normalized] = i
	}
	for _, required := range payoutReportColumns {
		if _, ok := columnMap[required]; !ok {
			return nil, apierror.NewAPIError(apierror.ErrInvalidInput,
				fmt.Sprintf("Payout report is missing the '%s' column", required), nil)
		}
	}
	return columnMap, nil
}

// ParsePayoutReport reads a CSV payout report into records. Row errors are
// accumulated; one bad row does not reject the report.
func ParsePayoutReport(reader io.Reader) ([]model.PayoutRecord, error) {
	csvReader := csv.NewReader(bufio.NewReader(reader))

	headers, err := csvReader.Read()
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "Error reading payout report headers", err)
	}
	columnMap, err := createPayoutColumnMap(headers)
	if err != nil {
		return nil, err
	}

	var records []model.PayoutRecord
	var errs []error
	rowNum := 1
	for {
		row, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("error reading row %d: %w", rowNum, err))
			rowNum++
			continue
		}
		rowNum++

		amount, err := decimal.NewFromString(strings.TrimSpace(row[columnMap["amount"]]))
		if err != nil {
			errs = append(errs, fmt.Errorf("row %d: invalid amount %q", rowNum, row[columnMap["amount"]]))
			continue
		}
		paidAt, err := time.Parse("2006-01-02", strings.TrimSpace(row[columnMap["paid_at"]]))
		if err != nil {
			errs = append(errs, fmt.Errorf("row %d: invalid paid_at %q", rowNum, row[columnMap["paid_at"]]))
			continue
		}

		records = append(records, model.PayoutRecord{
			Reference:     strings.TrimSpace(row[columnMap["reference"]]),
			AccountHolder: strings.TrimSpace(row[columnMap["account_holder"]]),
			Amount:        amount,
			PaidAt:        paidAt,
		})
	}

	if len(records) == 0 && len(errs) > 0 {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "Payout report contained no valid rows", errs)
	}
	return records, nil
}

// MatchPayoutReport reconciles an external payout report against withdrawals
// awaiting settlement. A record matches a withdrawal when the amounts are
// equal and the account holder names agree within the configured Levenshtein
// distance. Each withdrawal is consumed by at most one record.
func (c *Crewmark) MatchPayoutReport(ctx context.Context, records []model.PayoutRecord) (*PayoutReconciliationResult, error) {
	ctx, span := reconciliationTracer.Start(ctx, "Matching payout report")
	defer span.End()

	conf, err := config.Fetch()
	if err != nil {
		return nil, err
	}
	threshold := *conf.Payout.MatchThreshold

	candidates, err := c.datasource.GetWithdrawalsByStatus(ctx, model.WithdrawalApproved, model.WithdrawalTransferProcessing)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	result := &PayoutReconciliationResult{
		Matched:   []model.PayoutMatch{},
		Unmatched: []model.PayoutRecord{},
	}
	consumed := make(map[string]bool, len(candidates))

	for _, record := range records {
		var best *model.Withdrawal
		bestSimilarity := 0.0
		for _, w := range candidates {
			if consumed[w.WithdrawalID] {
				continue
			}
			if !record.Amount.Equal(w.PayoutAmount) {
				continue
			}
			similarity, ok := nameSimilarity(record.AccountHolder, w.Payout.AccountHolder, threshold)
			if !ok {
				continue
			}
			if best == nil || similarity > bestSimilarity {
				best = w
				bestSimilarity = similarity
			}
		}
		if best == nil {
			result.Unmatched = append(result.Unmatched, record)
			continue
		}
		consumed[best.WithdrawalID] = true
		result.Matched = append(result.Matched, model.PayoutMatch{
			WithdrawalID: best.WithdrawalID,
			Record:       record,
			Similarity:   bestSimilarity,
		})
	}
	return result, nil
}

// nameSimilarity compares two account holder names. It returns a similarity
// in (0, 1] and whether the names agree within maxDistance edits. Comparison
// is case-insensitive and ignores surrounding whitespace.
func nameSimilarity(a, b string, maxDistance int) (float64, bool) {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0, false
	}
	if a == b {
		return 1, true
	}

	distance := levenshtein.DistanceForStrings([]rune(a), []rune(b), levenshtein.DefaultOptions)
	if distance > maxDistance {
		return 0, false
	}

	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	return 1 - float64(distance)/float64(maxLen), true
}
