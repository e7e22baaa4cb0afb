package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ошибки валидации и бизнес-правил
	ErrValidationFailed     = errors.New("validation failed")
	ErrImportEmpty          = errors.New("no valid match rows found in the uploaded file")
	ErrSeasonUnrecognized   = errors.New("season could not be recognized from the file name")
	ErrOverwriteNeedsSeason = errors.New("overwrite mode requires a season")
	ErrUnsupportedFile      = errors.New("unsupported file type, expected .xlsx or .csv")
	ErrInvalidImportMode    = errors.New("import mode must be \"normal\" or \"overwrite\"")
	ErrSeasonRequired       = errors.New("season is required")

	// Ошибки аутентификации и авторизации
	ErrInvalidCredentials   = errors.New("invalid role or password")
	ErrAuthenticationFailed = errors.New("authentication failed")
)
