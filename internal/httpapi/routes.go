package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"strconv"

	"luigi/internal/audit"
	"luigi/internal/configstore"
	"luigi/internal/logreader"
	"luigi/internal/luigierrors"
	"luigi/internal/obslog"
	"luigi/internal/registry"
	"luigi/internal/soundctl"
	"luigi/internal/svcctl"
	"luigi/internal/sysmetrics"
)

// Deps is everything a route handler needs, assembled once at startup and
// closed over by every handler function — mirrors the teacher's
// OAuthHTTPServer holding its collaborators as fields rather than globals.
type Deps struct {
	Registry *registry.Reader
	Services *svcctl.Controller
	Config   *configstore.Store
	Logs     *logreader.Reader
	Metrics  *sysmetrics.Controller
	Sounds   *soundctl.Invoker
	Audit    *audit.Logger
}

// moduleSummary is the minimal view spec §4.11's GET /api/modules returns.
type moduleSummary struct {
	Name         string   `json:"name"`
	Status       string   `json:"status"`
	Version      string   `json:"version"`
	Capabilities []string `json:"capabilities"`
}

// moduleDetail is the merged registry+service+runtime view GET
// /api/modules/:name returns.
type moduleDetail struct {
	moduleSummary
	ModulePath    string `json:"module_path"`
	Category      string `json:"category"`
	Description   string `json:"description"`
	PID           *int   `json:"pid,omitempty"`
	UptimeSeconds *int64 `json:"uptime_seconds,omitempty"`
	MemoryKB      *int64 `json:"memory_kb,omitempty"`
	Enabled       bool   `json:"enabled"`
}

func unitNameFor(entry registry.Entry) string {
	if entry.ServiceName != nil && *entry.ServiceName != "" {
		return svcctl.UnitName(*entry.ServiceName)
	}
	return svcctl.UnitName(entry.Name)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (d *Deps) handleModulesList(w http.ResponseWriter, r *http.Request) {
	entries, err := d.Registry.List()
	if err != nil {
		writeError(w, r, d.Audit, "Modules", err)
		return
	}
	summaries := make([]moduleSummary, 0, len(entries))
	for _, e := range entries {
		status := "installed"
		if e.HasCapability("service") {
			status = d.Services.Status(r.Context(), unitNameFor(e)).Status
		}
		summaries = append(summaries, moduleSummary{
			Name:         e.Name,
			Status:       status,
			Version:      e.Version,
			Capabilities: e.Capabilities,
		})
	}
	writeSuccess(w, http.StatusOK, map[string]any{"modules": summaries})
}

func (d *Deps) handleModuleGet(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	entry, ok, err := d.Registry.FindByName(name)
	if err != nil {
		writeError(w, r, d.Audit, "Modules", err)
		return
	}
	if !ok {
		writeError(w, r, d.Audit, "Modules", luigierrors.NotFound("module", name))
		return
	}

	state := svcctl.State{Status: "installed"}
	if entry.HasCapability("service") {
		unit := unitNameFor(entry)
		state = d.Services.Runtime(r.Context(), unit, d.Services.Status(r.Context(), unit))
	}

	detail := moduleDetail{
		moduleSummary: moduleSummary{
			Name:         entry.Name,
			Status:       state.Status,
			Version:      entry.Version,
			Capabilities: entry.Capabilities,
		},
		ModulePath:    entry.ModulePath,
		Category:      entry.Category,
		Description:   entry.Description,
		PID:           state.PID,
		UptimeSeconds: state.UptimeSeconds,
		MemoryKB:      state.MemoryKB,
		Enabled:       state.Enabled,
	}
	writeSuccess(w, http.StatusOK, detail)
}

func (d *Deps) handleModuleOp(op string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		entry, ok, err := d.Registry.FindByName(name)
		if err != nil {
			writeError(w, r, d.Audit, "Modules", err)
			return
		}
		if !ok {
			writeError(w, r, d.Audit, "Modules", luigierrors.NotFound("module", name))
			return
		}

		unit := unitNameFor(entry)
		var result svcctl.OpResult
		switch op {
		case "start":
			result = d.Services.Start(r.Context(), unit)
		case "stop":
			result = d.Services.Stop(r.Context(), unit)
		case "restart":
			result = d.Services.Restart(r.Context(), unit)
		}

		outcome := "success"
		if !result.Success {
			outcome = "failure"
		}
		_ = d.Audit.Record(audit.EventServiceOp, subjectOf(r), clientAddr(r), r.URL.Path, outcome, map[string]any{
			"module": name, "op": op, "message": result.Message,
		})
		obslog.Audit(obslog.AuditEvent{Kind: "service_op", Subject: subjectOf(r), Route: r.URL.Path, Outcome: outcome, Detail: name + ":" + op})

		if !result.Success {
			writeError(w, r, d.Audit, "Modules", luigierrors.New(luigierrors.KindServiceOpFailed, result.Message))
			return
		}
		writeSuccess(w, http.StatusOK, map[string]any{"module": name, "op": op, "message": "ok"})
	}
}

func (d *Deps) handleRegistryList(w http.ResponseWriter, r *http.Request) {
	entries, err := d.Registry.List()
	if err != nil {
		writeError(w, r, d.Audit, "Registry", err)
		return
	}
	stats, err := d.Registry.Stats()
	if err != nil {
		writeError(w, r, d.Audit, "Registry", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"entries": entries, "stats": stats})
}

func (d *Deps) handleRegistryGet(w http.ResponseWriter, r *http.Request) {
	modulePath := r.PathValue("path")
	entry, err := d.Registry.Get(modulePath)
	if err != nil {
		writeError(w, r, d.Audit, "Registry", err)
		return
	}
	writeSuccess(w, http.StatusOK, entry)
}

func (d *Deps) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, d.Metrics.Snapshot())
}

type confirmBody struct {
	Confirm bool `json:"confirm"`
}

func (d *Deps) handleSystemAction(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body confirmBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && err != io.EOF {
			writeError(w, r, d.Audit, "System", luigierrors.Validation("body must be valid JSON"))
			return
		}
		if !body.Confirm {
			writeError(w, r, d.Audit, "System", luigierrors.Validation("action requires {\"confirm\":true}", "confirm"))
			return
		}

		var result sysmetrics.OpResult
		switch action {
		case "reboot":
			result = d.Metrics.Reboot(r.Context())
		case "shutdown":
			result = d.Metrics.Shutdown(r.Context())
		case "update":
			result = d.Metrics.Update(r.Context())
		case "cleanup":
			result = d.Metrics.Cleanup(r.Context())
		}

		outcome := "success"
		if !result.Success {
			outcome = "failure"
		}
		_ = d.Audit.Record(audit.EventSystemAction, subjectOf(r), clientAddr(r), r.URL.Path, outcome, map[string]any{
			"action": action, "message": result.Message,
		})
		obslog.Audit(obslog.AuditEvent{Kind: "system_action", Subject: subjectOf(r), Route: r.URL.Path, Outcome: outcome, Detail: action})

		if !result.Success {
			writeError(w, r, d.Audit, "System", luigierrors.New(luigierrors.KindServiceOpFailed, result.Message))
			return
		}
		writeSuccess(w, http.StatusOK, map[string]any{"action": action, "message": "ok"})
	}
}

func (d *Deps) handleLogsList(w http.ResponseWriter, r *http.Request) {
	entries, err := d.Logs.List()
	if err != nil {
		writeError(w, r, d.Audit, "Logs", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"logs": entries})
}

func (d *Deps) handleLogsTail(w http.ResponseWriter, r *http.Request) {
	module := r.PathValue("module")
	opts := logreader.TailOptions{Search: r.URL.Query().Get("search")}
	if lines := r.URL.Query().Get("lines"); lines != "" {
		if n, err := strconv.Atoi(lines); err == nil {
			opts.Lines = n
		}
	}
	content, err := d.Logs.Tail(r.Context(), module, opts)
	if err != nil {
		writeError(w, r, d.Audit, "Logs", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"module": module, "lines": content})
}

// handleConfigList enumerates configurable modules from the registry
// rather than walking the config root directly, since a module's config
// path is a registry-declared reference, not a discoverable tree entry
// (spec §4.5).
func (d *Deps) handleConfigList(w http.ResponseWriter, r *http.Request) {
	modules, err := d.Registry.List()
	if err != nil {
		writeError(w, r, d.Audit, "Config", err)
		return
	}
	names := make([]string, 0, len(modules))
	for _, m := range modules {
		names = append(names, m.Name)
	}
	sort.Strings(names)
	writeSuccess(w, http.StatusOK, map[string]any{"modules": names})
}

func (d *Deps) handleConfigGet(w http.ResponseWriter, r *http.Request) {
	ref := r.PathValue("path")
	file, err := d.Config.Read(ref)
	if err != nil {
		writeError(w, r, d.Audit, "Config", err)
		return
	}
	writeSuccess(w, http.StatusOK, file)
}

func (d *Deps) handleConfigPut(w http.ResponseWriter, r *http.Request) {
	ref := r.PathValue("path")
	var patch map[string]string
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, r, d.Audit, "Config", luigierrors.Validation("body must be a flat JSON object of string values"))
		return
	}
	if err := d.Config.Update(ref, patch); err != nil {
		writeError(w, r, d.Audit, "Config", err)
		return
	}
	_ = d.Audit.Record(audit.EventConfigUpdate, subjectOf(r), clientAddr(r), r.URL.Path, "success", map[string]any{"ref": ref})
	obslog.Audit(obslog.AuditEvent{Kind: "config_update", Subject: subjectOf(r), Route: r.URL.Path, Outcome: "success", Detail: ref})
	writeSuccess(w, http.StatusOK, map[string]any{"ref": ref, "message": "updated"})
}

func (d *Deps) handleSoundsList(w http.ResponseWriter, r *http.Request) {
	modules, err := d.Sounds.Modules()
	if err != nil {
		writeError(w, r, d.Audit, "Sounds", err)
		return
	}
	names := make([]string, 0, len(modules))
	for _, m := range modules {
		names = append(names, m.Name)
	}
	sort.Strings(names)
	writeSuccess(w, http.StatusOK, map[string]any{"modules": names})
}

func (d *Deps) handleSoundsAssets(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	assets, err := d.Sounds.List(name)
	if err != nil {
		writeError(w, r, d.Audit, "Sounds", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"module": name, "assets": assets})
}

type playBody struct {
	File string `json:"file"`
}

func (d *Deps) handleSoundsPlay(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	var body playBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.File == "" {
		writeError(w, r, d.Audit, "Sounds", luigierrors.Validation("body must include \"file\"", "file"))
		return
	}
	if err := d.Sounds.Invoke(name, body.File); err != nil {
		writeError(w, r, d.Audit, "Sounds", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"module": name, "file": body.File, "message": "Sound playback started",
	})
}
