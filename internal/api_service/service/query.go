package service

import (
	"github.com/andesco/odata-valet/internal/entities"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var validate = newValidator()

// currencyCode matches codes usable as XML property names once paired, e.g. USD_CAD.
var currencyCode = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]{0,11}$`)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		return currencyCode.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// Example requests reported back with validation errors.
var (
	ExampleFeed = "/ExchangeRates?currencies=USD&years=5"

	ExamplePeriods = []string{
		"/ExchangeRates?currencies=USD&years=5",
		"/ExchangeRates?currencies=USD&months=6",
		"/ExchangeRates?currencies=USD&weeks=4",
		"/ExchangeRates?currencies=USD&start=2025-01-01&end=2025-12-31",
	}
)

// QueryParams are the raw ExchangeRates query string values.
type QueryParams struct {
	Currencies []string `validate:"required,dive,required,currency"`
	Years      string   `validate:"omitempty,number"`
	Months     string   `validate:"omitempty,number"`
	Weeks      string   `validate:"omitempty,number"`
	Start      string   `validate:"omitempty,datetime=2006-01-02"`
	End        string   `validate:"omitempty,datetime=2006-01-02"`
	Padding    string
}

// Query is a validated ExchangeRates request.
type Query struct {
	Codes  []string
	Pairs  []entities.Pair
	Period entities.PeriodSpec
	Pad    bool
}

func NewQueryParams(values url.Values) QueryParams {
	p := QueryParams{
		Years:   values.Get("years"),
		Months:  values.Get("months"),
		Weeks:   values.Get("weeks"),
		Start:   values.Get("start"),
		End:     values.Get("end"),
		Padding: values.Get("padding"),
	}
	if raw := values.Get("currencies"); raw != "" {
		p.Currencies = entities.SplitCodes(raw)
	}
	return p
}

// ParseQuery validates the query string of an ExchangeRates request.
// Failures are returned as *entities.ValidationError.
func ParseQuery(values url.Values) (Query, error) {
	return NewQueryParams(values).Query()
}

func (p QueryParams) Query() (Query, error) {
	if err := validate.Struct(p); err != nil {
		return Query{}, validationError(err)
	}

	period, err := p.period()
	if err != nil {
		return Query{}, err
	}

	return Query{
		Codes:  p.Currencies,
		Pairs:  entities.ExpandPairs(p.Currencies),
		Period: period,
		Pad:    p.Padding != "false",
	}, nil
}

func (p QueryParams) period() (entities.PeriodSpec, error) {
	unit, raw := p.relative()

	if unit == "" && p.Start == "" && p.End == "" {
		return entities.PeriodSpec{}, &entities.ValidationError{
			Code:     entities.CodeMissingPeriod,
			Message:  "Missing required time period parameter",
			Detail:   "Must specify one of: years, months, weeks, or start/end dates",
			Examples: ExamplePeriods,
		}
	}

	if unit != "" {
		count, err := strconv.Atoi(raw)
		if err != nil || count <= 0 {
			return entities.PeriodSpec{}, &entities.ValidationError{
				Code:      entities.CodeInvalidPeriod,
				Parameter: string(unit),
				Message:   "Period count must be a positive integer: " + string(unit),
				Examples:  ExamplePeriods,
				Err:       err,
			}
		}
		return entities.RelativePeriod(unit, count), nil
	}

	if p.Start == "" || p.End == "" {
		slog.Warn("incomplete date range, using default period", "start", p.Start, "end", p.End)
		return entities.DefaultPeriod(), nil
	}

	start, err := parseDate("start", p.Start)
	if err != nil {
		return entities.PeriodSpec{}, err
	}
	end, err := parseDate("end", p.End)
	if err != nil {
		return entities.PeriodSpec{}, err
	}

	if start.After(end) {
		return entities.PeriodSpec{}, &entities.ValidationError{
			Code:      entities.CodeInvertedRange,
			Parameter: "start",
			Message:   "start must not be after end",
			Examples:  ExamplePeriods[3:],
		}
	}

	return entities.AbsolutePeriod(start, end), nil
}

// relative picks the relative unit by precedence: years, months, weeks.
func (p QueryParams) relative() (entities.PeriodUnit, string) {
	switch {
	case p.Years != "":
		return entities.UnitYears, p.Years
	case p.Months != "":
		return entities.UnitMonths, p.Months
	case p.Weeks != "":
		return entities.UnitWeeks, p.Weeks
	}
	return "", ""
}

func parseDate(param, value string) (time.Time, error) {
	t, err := time.Parse(entities.DateLayout, value)
	if err != nil {
		return time.Time{}, invalidDate(param, errors.Wrap(entities.ErrInvalidDate, err.Error()))
	}
	return t, nil
}

func invalidDate(param string, err error) *entities.ValidationError {
	return &entities.ValidationError{
		Code:      entities.CodeInvalidDate,
		Parameter: param,
		Message:   "Date must use the YYYY-MM-DD format: " + param,
		Examples:  ExamplePeriods[3:],
		Err:       err,
	}
}

// validationError maps the first failed field to a client error code.
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	fe := fieldErrs[0]
	field := fe.StructField()

	switch {
	case field == "Currencies":
		return &entities.ValidationError{
			Code:      entities.CodeMissingCurrencies,
			Parameter: "currencies",
			Message:   "Missing required parameter: currencies",
			Examples:  []string{ExampleFeed},
			Err:       fe,
		}
	case strings.HasPrefix(field, "Currencies["):
		return &entities.ValidationError{
			Code:      entities.CodeInvalidCurrency,
			Parameter: "currencies",
			Message:   "Currency codes must be letters and digits starting with a letter, e.g. USD or EUR",
			Examples:  []string{"/ExchangeRates?currencies=USD,EUR&months=6"},
			Err:       fe,
		}
	case field == "Start" || field == "End":
		return invalidDate(strings.ToLower(field), errors.Wrap(entities.ErrInvalidDate, fe.Error()))
	default:
		param := strings.ToLower(field)
		return &entities.ValidationError{
			Code:      entities.CodeInvalidPeriod,
			Parameter: param,
			Message:   "Period count must be a positive integer: " + param,
			Examples:  ExamplePeriods,
			Err:       fe,
		}
	}
}

// ParseCodes validates an optional currency list, as accepted by $metadata.
// An empty list is returned as nil.
func ParseCodes(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}

	codes := entities.SplitCodes(raw)
	if err := validate.Var(codes, "dive,required,currency"); err != nil {
		return nil, &entities.ValidationError{
			Code:      entities.CodeInvalidCurrency,
			Parameter: "currencies",
			Message:   "Currency codes must be letters and digits starting with a letter, e.g. USD or EUR",
			Examples:  []string{"/$metadata?currencies=USD,EUR"},
			Err:       err,
		}
	}

	return codes, nil
}
