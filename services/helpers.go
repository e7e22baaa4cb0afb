package services

import (
	"strconv"

	"github.com/fogna/football-stats/models"
)

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatCount(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatResult(v *models.ResultCode) string {
	if v == nil {
		return ""
	}
	return string(*v)
}
