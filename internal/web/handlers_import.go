package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/JonMunkholm/vetimport/internal/core"
	"github.com/JonMunkholm/vetimport/internal/logging"
)

// importBody is the wire shape of POST /import and POST /import/preview.
// Rows stay raw until the shape check so that a non-array value reaches
// the pipeline as "no rows" after the security gate has run.
type importBody struct {
	TableType    core.TableType  `json:"tableType"`
	Rows         json.RawMessage `json:"rows"`
	CallerSecret string          `json:"callerSecret"`
}

// tableInfo describes one importable table for GET /import.
type tableInfo struct {
	TableType     core.TableType `json:"tableType"`
	Label         string         `json:"label"`
	Description   string         `json:"description,omitempty"`
	RequiredField string         `json:"requiredField"`
}

// importInfo is the GET /import response.
type importInfo struct {
	TableTypes []core.TableType `json:"tableTypes"`
	MaxRows    int              `json:"maxRows"`
	Tables     []tableInfo      `json:"tables"`
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// handleImportInfo lists the accepted table types and the row ceiling.
func (s *Server) handleImportInfo(w http.ResponseWriter, r *http.Request) {
	defs := s.service.ListTables()

	info := importInfo{
		TableTypes: make([]core.TableType, 0, len(defs)),
		MaxRows:    s.service.MaxRows(),
		Tables:     make([]tableInfo, 0, len(defs)),
	}
	for _, def := range defs {
		info.TableTypes = append(info.TableTypes, def.Type)
		info.Tables = append(info.Tables, tableInfo{
			TableType:     def.Type,
			Label:         def.Label,
			Description:   def.Description,
			RequiredField: def.RequiredField,
		})
	}

	writeJSON(w, r, http.StatusOK, info)
}

// handleImport runs one import. Partial row rejection is still a 200.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeImportRequest(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	result, err := s.service.Import(r.Context(), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, result)
}

// handlePreview runs gate, dispatch and normalization without submitting.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeImportRequest(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	result, err := s.service.Preview(r.Context(), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, result)
}

// decodeImportRequest reads the size-limited JSON body. Numbers are kept
// as json.Number so integer row values survive without float rounding.
func (s *Server) decodeImportRequest(w http.ResponseWriter, r *http.Request) (core.ImportRequest, error) {
	if s.cfg.Import.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxBodyBytes)
	}

	var body importBody
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return core.ImportRequest{}, &core.ValidationError{
				Reason:  core.ReasonMalformed,
				Message: "request body too large",
			}
		}
		return core.ImportRequest{}, &core.ValidationError{
			Reason:  core.ReasonMalformed,
			Message: "malformed JSON body",
		}
	}

	req := core.ImportRequest{
		TableType:    body.TableType,
		CallerSecret: body.CallerSecret,
	}

	raw := bytes.TrimSpace(body.Rows)
	if len(raw) == 0 || raw[0] != '[' {
		// Missing, null or non-array rows: left empty for dispatch to reject.
		return req, nil
	}

	rowDec := json.NewDecoder(bytes.NewReader(raw))
	rowDec.UseNumber()
	if err := rowDec.Decode(&req.Rows); err != nil {
		return core.ImportRequest{}, &core.ValidationError{
			Reason:  core.ReasonMalformed,
			Message: "malformed JSON body: every row must be an object",
		}
	}

	logging.FromContext(r.Context()).Debug("import request decoded",
		"table_type", req.TableType,
		"rows", len(req.Rows),
		"caller_secret_present", req.CallerSecret != "",
	)

	return req, nil
}
