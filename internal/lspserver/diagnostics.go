// Copyright 2024 The HLASM Language Server Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package lspserver

import (
	"context"

	"github.com/sourcegraph/go-lsp"

	"github.com/eclipse-che4z/hlasm-language-server/internal/ca"
	"github.com/eclipse-che4z/hlasm-language-server/internal/resource"
)

const errPublishDiagnostics = "failed to publish diagnostics"

func severityOf(s ca.Severity) lsp.DiagnosticSeverity {
	switch s {
	case ca.SeverityError:
		return lsp.Error
	case ca.SeverityWarning:
		return lsp.Warning
	default:
		return lsp.Information
	}
}

func toLSPRange(r ca.Range) lsp.Range {
	return lsp.Range{
		Start: lsp.Position{Line: r.Start.Line, Character: r.Start.Character},
		End:   lsp.Position{Line: r.End.Line, Character: r.End.Character},
	}
}

func toLSPDiagnostics(ds []ca.Diagnostic) []lsp.Diagnostic {
	out := make([]lsp.Diagnostic, len(ds))
	for i, d := range ds {
		out[i] = lsp.Diagnostic{
			Range:    toLSPRange(d.Range),
			Severity: severityOf(d.Severity),
			Code:     d.Code,
			Source:   serverName,
			Message:  d.Message,
		}
	}
	return out
}

// publishDiagnostics is the orchestrator.DiagnosticsObserver the Handler
// subscribes: every time the idle loop finishes parsing a file it fans the
// combined errors+warnings out over textDocument/publishDiagnostics.
func (h *Handler) publishDiagnostics(loc resource.Location, errs, warnings []ca.Diagnostic) {
	conn := h.currentConn()
	if conn == nil {
		return
	}
	all := append(append([]ca.Diagnostic(nil), errs...), warnings...)
	params := &lsp.PublishDiagnosticsParams{
		URI:         lsp.DocumentURI(loc.String()),
		Diagnostics: toLSPDiagnostics(all),
	}
	if err := conn.Notify(context.Background(), "textDocument/publishDiagnostics", params); err != nil {
		h.log.Debug(errPublishDiagnostics, "error", err)
	}
}
