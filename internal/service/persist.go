package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"rpgpt/internal/models"
)

// Files are written with four-space indentation.
const fileIndent = "    "

// EncodeSettings writes a settings file. An unset categorical list is
// written as null, which decodes back to unset; pass
// FilterEngine.Effective settings to write explicit value lists.
func EncodeSettings(w io.Writer, settings models.FilterSettings) error {
	return encodeIndented(w, settingsForFile(settings))
}

// EncodeQAFile writes a Q&A save file.
func EncodeQAFile(w io.Writer, file models.QAFile) error {
	out := file
	out.Settings = settingsForFile(file.Settings)
	if out.QA == nil {
		out.QA = []models.QARecord{}
	}
	return encodeIndented(w, out)
}

// DecodeSettings reads a settings file. It must be a JSON object; every
// known key that is present must hold a list. Absent keys stay unset.
func DecodeSettings(r io.Reader) (models.FilterSettings, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return models.FilterSettings{}, NewError(InvalidPersistedFile, "failed to read settings file", err)
	}
	raw, err := decodeObject(data, "settings file")
	if err != nil {
		return models.FilterSettings{}, err
	}
	return settingsFromRaw(raw, "settings file")
}

// DecodeQAFile reads a Q&A save file. Both "settings" and "qa" are
// required and every qa record needs a question_id.
func DecodeQAFile(r io.Reader) (models.QAFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return models.QAFile{}, NewError(InvalidPersistedFile, "failed to read Q&A file", err)
	}
	raw, err := decodeObject(data, "Q&A file")
	if err != nil {
		return models.QAFile{}, err
	}

	var missing []string
	for _, key := range []string{"settings", "qa"} {
		if _, ok := raw[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return models.QAFile{}, NewError(InvalidPersistedFile,
			fmt.Sprintf("Q&A file is missing keys: %v", missing), nil).
			WithDetails(map[string]interface{}{"missing": missing})
	}

	settingsRaw, err := decodeObject(raw["settings"], "Q&A file settings")
	if err != nil {
		return models.QAFile{}, err
	}
	settings, err := settingsFromRaw(settingsRaw, "Q&A file settings")
	if err != nil {
		return models.QAFile{}, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw["qa"], &items); err != nil {
		return models.QAFile{}, NewError(InvalidPersistedFile, "Q&A file qa must be a list", err)
	}
	file := models.QAFile{Settings: settings, QA: make([]models.QARecord, 0, len(items))}
	for i, item := range items {
		var keys map[string]json.RawMessage
		if err := json.Unmarshal(item, &keys); err != nil {
			return models.QAFile{}, NewError(InvalidPersistedFile,
				fmt.Sprintf("Q&A file qa[%d] must be an object", i), err)
		}
		if _, ok := keys["question_id"]; !ok {
			return models.QAFile{}, NewError(InvalidPersistedFile,
				fmt.Sprintf("Q&A file qa[%d] has no question_id", i), nil)
		}
		var rec models.QARecord
		if err := json.Unmarshal(item, &rec); err != nil {
			return models.QAFile{}, NewError(InvalidPersistedFile,
				fmt.Sprintf("Q&A file qa[%d] is malformed", i), err)
		}
		file.QA = append(file.QA, rec)
	}
	return file, nil
}

func decodeObject(data []byte, what string) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, NewError(InvalidPersistedFile, what+" is not a valid JSON object", err)
	}
	if raw == nil {
		return nil, NewError(InvalidPersistedFile, what+" must be a JSON object", nil)
	}
	return raw, nil
}

func settingsFromRaw(raw map[string]json.RawMessage, what string) (models.FilterSettings, error) {
	for _, key := range models.SettingsKeys {
		msg, ok := raw[key]
		if !ok {
			continue
		}
		trimmed := bytes.TrimSpace(msg)
		if len(trimmed) == 0 || (trimmed[0] != '[' && !bytes.Equal(trimmed, []byte("null"))) {
			return models.FilterSettings{}, NewError(InvalidPersistedFile,
				fmt.Sprintf("%s key %q must be a list", what, key), nil)
		}
	}
	body, err := json.Marshal(raw)
	if err != nil {
		return models.FilterSettings{}, NewError(InvalidPersistedFile, what+" could not be re-encoded", err)
	}
	var settings models.FilterSettings
	if err := json.Unmarshal(body, &settings); err != nil {
		return models.FilterSettings{}, NewError(InvalidPersistedFile, what+" is malformed", err)
	}
	return settings, nil
}

func settingsForFile(s models.FilterSettings) models.FilterSettings {
	out := s.Clone()
	if out.Sectors == nil {
		out.Sectors = []string{}
	}
	return out
}

func encodeIndented(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", fileIndent)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
