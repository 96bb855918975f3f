package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// NaN is the token that stands in for a missing value in CSV cells and
// JSON files. It never takes part in comparisons; see Value.
const NaN = "NaN"

// Value is an optional categorical cell. The zero Value is missing.
type Value struct {
	Text  string
	Valid bool
}

// Present wraps a known value.
func Present(s string) Value {
	return Value{Text: s, Valid: true}
}

// Missing returns the absent value.
func Missing() Value {
	return Value{}
}

// ParseValue converts a boundary string into a Value. The NaN token is the
// only spelling of "missing" once ingest has normalized cells.
func ParseValue(s string) Value {
	if s == NaN {
		return Missing()
	}
	return Present(s)
}

// Token returns the boundary representation of v.
func (v Value) Token() string {
	if !v.Valid {
		return NaN
	}
	return v.Text
}

func (v Value) String() string {
	return v.Token()
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Token())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*v = Missing()
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*v = ParseValue(s)
	return nil
}

// QuestionRow is one record of the question dataset.
type QuestionRow struct {
	QuestionID      string `json:"question_id"`
	QuestionText    string `json:"question"`
	SectorExpr      string `json:"sector"`
	ModuleName      Value  `json:"module_name"`
	SupplyChainOnly Value  `json:"supply_chain_only"`
	IFRSS2          Value  `json:"ifrs_s2"`
	AFI             Value  `json:"afi"`
}

// QACacheEntry is the answer record kept for one question in a session.
type QACacheEntry struct {
	QuestionID   string `json:"question_id"`
	QuestionText string `json:"question"`
	Sector       string `json:"sector"`
	ModuleName   string `json:"module_name"`
	Answer       string `json:"answer"`
}

// FilterSettings selects the questions a session works on. A nil
// categorical list is unset and means "every value present in the
// dataset"; an empty, non-nil list selects nothing. Sectors are
// human-readable names and an empty list means "no sector restriction".
type FilterSettings struct {
	Sectors     []string `json:"sectors"`
	SupplyChain []string `json:"supply_chain"`
	IFRSS2      []string `json:"ifrs_s2"`
	AFI         []string `json:"afi"`
	ModuleName  []string `json:"module_name"`
}

// Settings file keys, in file order.
const (
	KeySectors     = "sectors"
	KeySupplyChain = "supply_chain"
	KeyIFRSS2      = "ifrs_s2"
	KeyAFI         = "afi"
	KeyModuleName  = "module_name"
)

// SettingsKeys lists the keys of a settings object.
var SettingsKeys = []string{KeySectors, KeySupplyChain, KeyIFRSS2, KeyAFI, KeyModuleName}

// List returns the list stored under a settings key.
func (s FilterSettings) List(key string) []string {
	switch key {
	case KeySectors:
		return s.Sectors
	case KeySupplyChain:
		return s.SupplyChain
	case KeyIFRSS2:
		return s.IFRSS2
	case KeyAFI:
		return s.AFI
	case KeyModuleName:
		return s.ModuleName
	}
	return nil
}

// Clone returns a deep copy that keeps nil lists nil.
func (s FilterSettings) Clone() FilterSettings {
	return FilterSettings{
		Sectors:     cloneList(s.Sectors),
		SupplyChain: cloneList(s.SupplyChain),
		IFRSS2:      cloneList(s.IFRSS2),
		AFI:         cloneList(s.AFI),
		ModuleName:  cloneList(s.ModuleName),
	}
}

// UnmarshalJSON accepts lists of any JSON scalars and stringifies them, so
// files written by other tools (numbers, booleans, nulls) still load.
func (s *FilterSettings) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var out FilterSettings
	targets := map[string]*[]string{
		KeySectors:     &out.Sectors,
		KeySupplyChain: &out.SupplyChain,
		KeyIFRSS2:      &out.IFRSS2,
		KeyAFI:         &out.AFI,
		KeyModuleName:  &out.ModuleName,
	}
	for key, dst := range targets {
		msg, ok := raw[key]
		if !ok {
			continue
		}
		list, err := StringList(msg)
		if err != nil {
			return &FieldError{Field: key, Err: err}
		}
		*dst = list
	}
	*s = out
	return nil
}

// QARecord is one entry of the qa list in a Q&A file.
type QARecord struct {
	QuestionID string `json:"question_id"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
}

func (r *QARecord) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var out QARecord
	for key, dst := range map[string]*string{
		"question_id": &out.QuestionID,
		"question":    &out.Question,
		"answer":      &out.Answer,
	} {
		msg, ok := raw[key]
		if !ok {
			continue
		}
		v, err := StringScalar(msg)
		if err != nil {
			return &FieldError{Field: key, Err: err}
		}
		*dst = v
	}
	*r = out
	return nil
}

// QAFile is the downloadable save file of a review session.
type QAFile struct {
	Settings FilterSettings `json:"settings"`
	QA       []QARecord     `json:"qa"`
}

// FieldError reports which key of a JSON object failed to decode.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return "field " + e.Field + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// StringList decodes a JSON array whose elements are stringified with
// StringScalar. A null list decodes to nil (unset).
func StringList(data json.RawMessage) ([]string, error) {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	list := make([]string, 0, len(items))
	for _, item := range items {
		v, err := StringScalar(item)
		if err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	return list, nil
}

// StringScalar converts a JSON scalar to its string form: numbers keep
// their literal text, booleans become True/False and null becomes NaN.
func StringScalar(data json.RawMessage) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", err
	}
	switch t := v.(type) {
	case nil:
		return NaN, nil
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case bool:
		if t {
			return "True", nil
		}
		return "False", nil
	default:
		compact := new(bytes.Buffer)
		if err := json.Compact(compact, data); err != nil {
			return "", err
		}
		return strings.TrimSpace(compact.String()), nil
	}
}

func cloneList(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
