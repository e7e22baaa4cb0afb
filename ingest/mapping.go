package ingest

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/fogna/football-stats/models"
	"github.com/xuri/excelize/v2"
)

type field int

const (
	fieldDiv field = iota
	fieldDate
	fieldTime
	fieldHomeTeam
	fieldAwayTeam
	fieldFTHG
	fieldFTAG
	fieldFTR
	fieldHTHG
	fieldHTAG
	fieldHTR
	fieldHS
	fieldAS
	fieldHST
	fieldAST
	fieldHF
	fieldAF
	fieldHC
	fieldAC
	fieldHY
	fieldAY
	fieldHR
	fieldAR
)

// columnMap is the allow-list of source headers. Anything else is dropped.
var columnMap = map[string]field{
	"Div":      fieldDiv,
	"Date":     fieldDate,
	"Time":     fieldTime,
	"HomeTeam": fieldHomeTeam,
	"AwayTeam": fieldAwayTeam,
	"FTHG":     fieldFTHG,
	"FTAG":     fieldFTAG,
	"FTR":      fieldFTR,
	"HTHG":     fieldHTHG,
	"HTAG":     fieldHTAG,
	"HTR":      fieldHTR,
	"HS":       fieldHS,
	"AS":       fieldAS,
	"HST":      fieldHST,
	"AST":      fieldAST,
	"HF":       fieldHF,
	"AF":       fieldAF,
	"HC":       fieldHC,
	"AC":       fieldAC,
	"HY":       fieldHY,
	"AY":       fieldAY,
	"HR":       fieldHR,
	"AR":       fieldAR,
}

// SheetResult is what MapSheet produced from one sheet.
type SheetResult struct {
	Sheet   string
	Records []models.MatchRecord
	Dropped int
	Ignored []string // headers outside the allow-list
}

// MapSheet converts raw rows into match records. A sheet without a Div column takes
// the sheet name as division. Rows missing either team are dropped.
func MapSheet(sheet Sheet) SheetResult {
	res := SheetResult{Sheet: sheet.Name}
	if len(sheet.Rows) == 0 {
		return res
	}

	index := make(map[field]int)
	for i, h := range sheet.Rows[0] {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		f, ok := columnMap[h]
		if !ok {
			res.Ignored = append(res.Ignored, h)
			continue
		}
		if _, dup := index[f]; !dup {
			index[f] = i
		}
	}

	for _, row := range sheet.Rows[1:] {
		if isBlank(row) {
			continue
		}
		cell := func(f field) string {
			i, ok := index[f]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		home, away := cell(fieldHomeTeam), cell(fieldAwayTeam)
		if home == "" || away == "" {
			res.Dropped++
			continue
		}

		div := cell(fieldDiv)
		if _, ok := index[fieldDiv]; !ok {
			div = sheet.Name
		}

		res.Records = append(res.Records, models.MatchRecord{
			Div:               div,
			Date:              parseDate(cell(fieldDate)),
			Time:              parseKickoff(cell(fieldTime)),
			HomeTeam:          home,
			AwayTeam:          away,
			FTHG:              parseCount(cell(fieldFTHG)),
			FTAG:              parseCount(cell(fieldFTAG)),
			FTR:               parseResult(cell(fieldFTR)),
			HTHG:              parseCount(cell(fieldHTHG)),
			HTAG:              parseCount(cell(fieldHTAG)),
			HTR:               parseResult(cell(fieldHTR)),
			HomeShots:         parseCount(cell(fieldHS)),
			AwayShots:         parseCount(cell(fieldAS)),
			HomeShotsOnTarget: parseCount(cell(fieldHST)),
			AwayShotsOnTarget: parseCount(cell(fieldAST)),
			HomeFouls:         parseCount(cell(fieldHF)),
			AwayFouls:         parseCount(cell(fieldAF)),
			HomeCorners:       parseCount(cell(fieldHC)),
			AwayCorners:       parseCount(cell(fieldAC)),
			HomeYellow:        parseCount(cell(fieldHY)),
			AwayYellow:        parseCount(cell(fieldAY)),
			HomeRed:           parseCount(cell(fieldHR)),
			AwayRed:           parseCount(cell(fieldAR)),
		})
	}
	return res
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseCount accepts non-negative whole numbers, including "2.0" from raw numeric cells.
func parseCount(v string) *int {
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return nil
	}
	n := int(f)
	return &n
}

func parseResult(v string) *models.ResultCode {
	switch rc := models.ResultCode(strings.ToUpper(v)); rc {
	case models.ResultHome, models.ResultDraw, models.ResultAway:
		return &rc
	}
	return nil
}

var dateLayouts = []string{
	"02/01/2006",
	"02/01/06",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
}

// parseDate normalizes to YYYY-MM-DD. Unknown shapes are kept verbatim.
func parseDate(v string) *string {
	if v == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			s := t.Format("2006-01-02")
			return &s
		}
	}
	if serial, err := strconv.ParseFloat(v, 64); err == nil && serial >= 1 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			s := t.Format("2006-01-02")
			return &s
		}
	}
	return &v
}

// parseKickoff turns an Excel day fraction (0.8125) into "19:30"; text is kept.
func parseKickoff(v string) *string {
	if v == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 && f < 1 {
		minutes := int(math.Round(f * 24 * 60))
		s := fmt.Sprintf("%02d:%02d", minutes/60%24, minutes%60)
		return &s
	}
	return &v
}
