package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/spf-labs/spfsmartgate/internal/respath"
	"github.com/spf-labs/spfsmartgate/internal/store"
)

func (s *Server) registerTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "Read",
		Description: "Read a file's contents. Every read is tracked and satisfies the Build Anchor precondition for a subsequent edit or overwrite of the same path.",
	}, s.handleRead)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "Write",
		Description: "Write content to a file. Restricted to the compiled write allowlist (project and TMP roots); scored, validated, and content-inspected before it runs.",
	}, s.handleWrite)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "Edit",
		Description: "Replace an exact substring in an existing file. Requires the file to have been read first (Build Anchor) unless enforcement is Soft.",
	}, s.handleEdit)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "Bash",
		Description: "Run a shell command. Every sub-command's write destinations are extracted and checked against the write allowlist; dangerous patterns and piping to a shell interpreter are blocked outright.",
	}, s.handleBash)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "Glob",
		Description: "List files matching a glob pattern.",
	}, s.handleGlob)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "Grep",
		Description: "Search file contents for a pattern using ripgrep.",
	}, s.handleGrep)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "NotebookEdit",
		Description: "Replace a cell's content in a Jupyter notebook file. Subject to the same write allowlist, Build Anchor, and content inspection as Write/Edit.",
	}, s.handleNotebookEdit)

	mcp.AddTool(server, &mcp.Tool{Name: "status", Description: "Report the current session's action count, files touched, anchor ratio, and last tool."}, s.handleStatus)
	mcp.AddTool(server, &mcp.Tool{Name: "session", Description: "Dump the current session's full ledger as JSON."}, s.handleSession)
	mcp.AddTool(server, &mcp.Tool{Name: "calculate", Description: "Estimate a call's complexity C and tier without performing it."}, s.handleCalculate)
	mcp.AddTool(server, &mcp.Tool{Name: "gate", Description: "Run a call through the Gate Pipeline without performing it, returning the decision that would result."}, s.handleGate)

	mcp.AddTool(server, &mcp.Tool{Name: "spf_agent_remember", Description: "Store an agent memory entry under one of the six kinds: fact, instruction, preference, observation, temporary, pinned."}, s.handleAgentRemember)
	mcp.AddTool(server, &mcp.Tool{Name: "spf_agent_recall", Description: "Retrieve an agent memory entry by id."}, s.handleAgentRecall)
	mcp.AddTool(server, &mcp.Tool{Name: "spf_agent_forget", Description: "Delete an agent memory entry by id."}, s.handleAgentForget)
	mcp.AddTool(server, &mcp.Tool{Name: "spf_agent_list_memories", Description: "List every agent memory entry of a given kind."}, s.handleAgentListMemories)
	mcp.AddTool(server, &mcp.Tool{Name: "spf_agent_search_memories", Description: "List every agent memory entry id tagged with a given tag."}, s.handleAgentSearchMemories)
	mcp.AddTool(server, &mcp.Tool{Name: "spf_agent_start_session", Description: "Create a new durable agent session context."}, s.handleAgentStartSession)
	mcp.AddTool(server, &mcp.Tool{Name: "spf_agent_end_session", Description: "Mark a durable agent session context's end-of-life state."}, s.handleAgentEndSession)
	mcp.AddTool(server, &mcp.Tool{Name: "spf_agent_get_session", Description: "Retrieve a durable agent session context by id."}, s.handleAgentGetSession)

	mcp.AddTool(server, &mcp.Tool{Name: "spf_config_get", Description: "Read one virtual configuration file: version, mode, tiers, formula, weights, paths, or patterns."}, s.handleConfigGet)
	mcp.AddTool(server, &mcp.Tool{Name: "spf_config_get_all", Description: "Dump the full effective configuration as JSON."}, s.handleConfigGetAll)
	mcp.AddTool(server, &mcp.Tool{Name: "spf_config_list_paths", Description: "List every configured allowed and blocked path rule."}, s.handleConfigListPaths)
	mcp.AddTool(server, &mcp.Tool{Name: "spf_config_list_patterns", Description: "List every configured dangerous command pattern and severity."}, s.handleConfigListPatterns)

	mcp.AddTool(server, &mcp.Tool{Name: "spf_projects_get", Description: "Read one project's metadata by root path."}, s.handleProjectsGet)
	mcp.AddTool(server, &mcp.Tool{Name: "spf_projects_list", Description: "List every known project root path."}, s.handleProjectsList)
	mcp.AddTool(server, &mcp.Tool{Name: "spf_projects_active", Description: "Report the currently active project."}, s.handleProjectsActive)
	mcp.AddTool(server, &mcp.Tool{Name: "spf_projects_set_active", Description: "Set the active project, creating its metadata record if absent."}, s.handleProjectsSetActive)
	mcp.AddTool(server, &mcp.Tool{Name: "spf_projects_stats", Description: "Report read/write counters and totals for one project."}, s.handleProjectsStats)

	mcp.AddTool(server, &mcp.Tool{Name: "spf_tmp_get", Description: "Read one TMP scratch resource's metadata for the active project."}, s.handleTmpGet)
	mcp.AddTool(server, &mcp.Tool{Name: "spf_tmp_list", Description: "List every TMP scratch resource for the active project."}, s.handleTmpList)
	mcp.AddTool(server, &mcp.Tool{Name: "spf_tmp_access_log", Description: "Report the most recent TMP access-log entries."}, s.handleTmpAccessLog)
	mcp.AddTool(server, &mcp.Tool{Name: "spf_tmp_active", Description: "Report which project TMP is currently scoped to."}, s.handleTmpActive)

	mcp.AddTool(server, &mcp.Tool{Name: "spf_brain_query", Description: "Delegate a query to the external RAG/brain subprocess. Not implemented in-process; this gateway treats it as an opaque external binary."}, s.handleExternalStub("brain_query"))
	mcp.AddTool(server, &mcp.Tool{Name: "spf_brain_status", Description: "Report the external RAG/brain subprocess's status. Opaque external binary."}, s.handleExternalStub("brain_status"))
	mcp.AddTool(server, &mcp.Tool{Name: "spf_brain_index", Description: "Trigger the external RAG/brain subprocess's indexing. Opaque external binary."}, s.handleExternalStub("brain_index"))
	mcp.AddTool(server, &mcp.Tool{Name: "spf_rag_query", Description: "Delegate a query to the external RAG subprocess. Opaque external binary."}, s.handleExternalStub("rag_query"))
	mcp.AddTool(server, &mcp.Tool{Name: "spf_rag_status", Description: "Report the external RAG subprocess's status. Opaque external binary."}, s.handleExternalStub("rag_status"))
	mcp.AddTool(server, &mcp.Tool{Name: "spf_web_search", Description: "Delegate a web search to the external tool. Rate-limited as an external category call."}, s.handleExternalStub("web_search"))
	mcp.AddTool(server, &mcp.Tool{Name: "spf_web_fetch", Description: "Delegate a web fetch to the external tool. Rate-limited as an external category call."}, s.handleExternalStub("web_fetch"))
}

// ---- input types ----

type pathInput struct {
	Path string `json:"path" jsonschema:"absolute or relative filesystem path"`
}

type writeInput struct {
	Path    string `json:"path" jsonschema:"destination path, must fall under the write allowlist"`
	Content string `json:"content" jsonschema:"new file content"`
}

type editInput struct {
	Path       string `json:"path"`
	OldString  string `json:"old_string" jsonschema:"exact substring to replace"`
	NewString  string `json:"new_string"`
	ReplaceAll bool   `json:"replace_all,omitempty"`
}

type bashInput struct {
	Command string `json:"command"`
}

type globInput struct {
	Pattern string `json:"pattern"`
	Path    string `json:"path,omitempty"`
}

type grepInput struct {
	Pattern string `json:"pattern"`
	Path    string `json:"path,omitempty"`
}

type notebookEditInput struct {
	Path       string `json:"path"`
	CellID     string `json:"cell_id,omitempty"`
	NewSource  string `json:"new_source"`
}

type emptyInput struct{}

type gateInput struct {
	Tool   string         `json:"tool"`
	Params map[string]any `json:"params,omitempty"`
}

// ---- core filesystem tools ----

func (s *Server) handleRead(ctx context.Context, req *mcp.CallToolRequest, in pathInput) (*mcp.CallToolResult, any, error) {
	d := s.gateCall("Read", map[string]any{"path": in.Path})
	if !d.Allowed {
		return deniedResult(d), nil, nil
	}
	resolved := respath.Resolve(in.Path)
	content, err := os.ReadFile(resolved.Canonical)
	if err != nil {
		return textResult(fmt.Sprintf("read error: %v", err)), nil, nil
	}
	s.trackRead(resolved.Canonical, resolved.Tainted)
	return textResult(string(content)), nil, nil
}

func (s *Server) handleWrite(ctx context.Context, req *mcp.CallToolRequest, in writeInput) (*mcp.CallToolResult, any, error) {
	d := s.gateCall("Write", map[string]any{"path": in.Path, "content": in.Content})
	if !d.Allowed {
		return deniedResult(d), nil, nil
	}
	resolved := respath.Resolve(in.Path)
	if err := os.WriteFile(resolved.Canonical, []byte(in.Content), 0o644); err != nil {
		return textResult(fmt.Sprintf("write error: %v", err)), nil, nil
	}
	s.trackWrite(resolved.Canonical, resolved.Tainted)
	return textResult(d.Message), nil, nil
}

func (s *Server) handleEdit(ctx context.Context, req *mcp.CallToolRequest, in editInput) (*mcp.CallToolResult, any, error) {
	d := s.gateCall("Edit", map[string]any{"path": in.Path, "replace_all": in.ReplaceAll})
	if !d.Allowed {
		return deniedResult(d), nil, nil
	}
	resolved := respath.Resolve(in.Path)
	existing, err := os.ReadFile(resolved.Canonical)
	if err != nil {
		return textResult(fmt.Sprintf("edit error: %v", err)), nil, nil
	}
	var updated string
	if in.ReplaceAll {
		updated = strings.ReplaceAll(string(existing), in.OldString, in.NewString)
	} else {
		updated = strings.Replace(string(existing), in.OldString, in.NewString, 1)
	}
	if updated == string(existing) {
		return textResult("old_string not found; no change made"), nil, nil
	}
	if err := os.WriteFile(resolved.Canonical, []byte(updated), 0o644); err != nil {
		return textResult(fmt.Sprintf("edit error: %v", err)), nil, nil
	}
	s.trackWrite(resolved.Canonical, resolved.Tainted)
	return textResult(d.Message), nil, nil
}

func (s *Server) handleBash(ctx context.Context, req *mcp.CallToolRequest, in bashInput) (*mcp.CallToolResult, any, error) {
	d := s.gateCall("Bash", map[string]any{"command": in.Command})
	if !d.Allowed {
		return deniedResult(d), nil, nil
	}
	cmd := exec.CommandContext(ctx, "sh", "-c", in.Command)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return textResult(fmt.Sprintf("%s\n(exit error: %v)", out, err)), nil, nil
	}
	return textResult(string(out)), nil, nil
}

func (s *Server) handleGlob(ctx context.Context, req *mcp.CallToolRequest, in globInput) (*mcp.CallToolResult, any, error) {
	d := s.gateCall("Glob", map[string]any{"pattern": in.Pattern, "path": in.Path})
	if !d.Allowed {
		return deniedResult(d), nil, nil
	}
	root := in.Path
	if root == "" {
		root = "."
	}
	matches, err := filepathGlob(root, in.Pattern)
	if err != nil {
		return textResult(fmt.Sprintf("glob error: %v", err)), nil, nil
	}
	return textResult(strings.Join(matches, "\n")), nil, nil
}

func (s *Server) handleGrep(ctx context.Context, req *mcp.CallToolRequest, in grepInput) (*mcp.CallToolResult, any, error) {
	d := s.gateCall("Grep", map[string]any{"pattern": in.Pattern, "path": in.Path})
	if !d.Allowed {
		return deniedResult(d), nil, nil
	}
	args := []string{"-n", in.Pattern}
	if in.Path != "" {
		args = append(args, in.Path)
	}
	out, err := exec.CommandContext(ctx, "rg", args...).CombinedOutput()
	if err != nil {
		return textResult(fmt.Sprintf("no matches or search error: %v\n%s", err, out)), nil, nil
	}
	return textResult(string(out)), nil, nil
}

func (s *Server) handleNotebookEdit(ctx context.Context, req *mcp.CallToolRequest, in notebookEditInput) (*mcp.CallToolResult, any, error) {
	d := s.gateCall("NotebookEdit", map[string]any{"path": in.Path, "content": in.NewSource})
	if !d.Allowed {
		return deniedResult(d), nil, nil
	}
	resolved := respath.Resolve(in.Path)
	if err := os.WriteFile(resolved.Canonical, []byte(in.NewSource), 0o644); err != nil {
		return textResult(fmt.Sprintf("notebook edit error: %v", err)), nil, nil
	}
	s.trackWrite(resolved.Canonical, resolved.Tainted)
	return textResult(d.Message), nil, nil
}

// ---- meta tools ----

func (s *Server) handleStatus(ctx context.Context, req *mcp.CallToolRequest, in emptyInput) (*mcp.CallToolResult, any, error) {
	s.mu.Lock()
	summary := s.sess.Status()
	s.mu.Unlock()
	raw, _ := json.MarshalIndent(summary, "", "  ")
	return textResult(string(raw)), nil, nil
}

func (s *Server) handleSession(ctx context.Context, req *mcp.CallToolRequest, in emptyInput) (*mcp.CallToolResult, any, error) {
	s.mu.Lock()
	raw, _ := json.MarshalIndent(s.sess, "", "  ")
	s.mu.Unlock()
	return textResult(string(raw)), nil, nil
}

func (s *Server) handleCalculate(ctx context.Context, req *mcp.CallToolRequest, in gateInput) (*mcp.CallToolResult, any, error) {
	d := s.gateCall(in.Tool, in.Params)
	raw, _ := json.MarshalIndent(struct {
		C    uint64 `json:"c"`
		Tier string `json:"tier"`
	}{d.C, string(d.Tier)}, "", "  ")
	return textResult(string(raw)), nil, nil
}

func (s *Server) handleGate(ctx context.Context, req *mcp.CallToolRequest, in gateInput) (*mcp.CallToolResult, any, error) {
	d := s.gateCall(in.Tool, in.Params)
	raw, _ := json.MarshalIndent(d, "", "  ")
	return textResult(string(raw)), nil, nil
}

// ---- agent memory / session tools ----

type agentRememberInput struct {
	Kind    string   `json:"kind" jsonschema:"one of fact, instruction, preference, observation, temporary, pinned"`
	Content string   `json:"content"`
	Tags    []string `json:"tags,omitempty"`
}

func (s *Server) handleAgentRemember(ctx context.Context, req *mcp.CallToolRequest, in agentRememberInput) (*mcp.CallToolResult, any, error) {
	d := s.gateCall("spf_agent_remember", nil)
	if !d.Allowed {
		return deniedResult(d), nil, nil
	}
	t := time.Now().Unix()
	m, err := s.agent.PutMemory(store.AgentMemory{
		Kind: store.MemoryKind(in.Kind), Content: in.Content, Tags: in.Tags,
		CreatedAt: t, UpdatedAt: t,
	})
	if err != nil {
		return textResult(fmt.Sprintf("remember error: %v", err)), nil, nil
	}
	return textResult(m.ID), nil, nil
}

type memoryIDInput struct {
	ID string `json:"id"`
}

func (s *Server) handleAgentRecall(ctx context.Context, req *mcp.CallToolRequest, in memoryIDInput) (*mcp.CallToolResult, any, error) {
	d := s.gateCall("spf_agent_recall", nil)
	if !d.Allowed {
		return deniedResult(d), nil, nil
	}
	m, err := s.agent.GetMemory(in.ID)
	if err != nil {
		return textResult(fmt.Sprintf("recall error: %v", err)), nil, nil
	}
	if m == nil {
		return textResult("no such memory"), nil, nil
	}
	raw, _ := json.MarshalIndent(m, "", "  ")
	return textResult(string(raw)), nil, nil
}

func (s *Server) handleAgentForget(ctx context.Context, req *mcp.CallToolRequest, in memoryIDInput) (*mcp.CallToolResult, any, error) {
	d := s.gateCall("spf_agent_forget", nil)
	if !d.Allowed {
		return deniedResult(d), nil, nil
	}
	existed, err := s.agent.DeleteMemory(in.ID)
	if err != nil {
		return textResult(fmt.Sprintf("forget error: %v", err)), nil, nil
	}
	if !existed {
		return textResult("no such memory"), nil, nil
	}
	return textResult("forgotten"), nil, nil
}

type kindInput struct {
	Kind string `json:"kind"`
}

func (s *Server) handleAgentListMemories(ctx context.Context, req *mcp.CallToolRequest, in kindInput) (*mcp.CallToolResult, any, error) {
	d := s.gateCall("spf_agent_list_memories", nil)
	if !d.Allowed {
		return deniedResult(d), nil, nil
	}
	memories, err := s.agent.ListMemoriesByKind(store.MemoryKind(in.Kind))
	if err != nil {
		return textResult(fmt.Sprintf("list error: %v", err)), nil, nil
	}
	raw, _ := json.MarshalIndent(memories, "", "  ")
	return textResult(string(raw)), nil, nil
}

type tagInput struct {
	Tag string `json:"tag"`
}

func (s *Server) handleAgentSearchMemories(ctx context.Context, req *mcp.CallToolRequest, in tagInput) (*mcp.CallToolResult, any, error) {
	d := s.gateCall("spf_agent_search_memories", nil)
	if !d.Allowed {
		return deniedResult(d), nil, nil
	}
	ids, err := s.agent.ListMemoriesByTag(in.Tag)
	if err != nil {
		return textResult(fmt.Sprintf("search error: %v", err)), nil, nil
	}
	return textResult(strings.Join(ids, "\n")), nil, nil
}

type startSessionInput struct {
	Label string `json:"label"`
}

func (s *Server) handleAgentStartSession(ctx context.Context, req *mcp.CallToolRequest, in startSessionInput) (*mcp.CallToolResult, any, error) {
	d := s.gateCall("spf_agent_start_session", nil)
	if !d.Allowed {
		return deniedResult(d), nil, nil
	}
	t := time.Now().Unix()
	sess, err := s.agent.PutSession(store.AgentSession{Label: in.Label, State: map[string]any{}, CreatedAt: t, UpdatedAt: t})
	if err != nil {
		return textResult(fmt.Sprintf("start session error: %v", err)), nil, nil
	}
	return textResult(sess.ID), nil, nil
}

func (s *Server) handleAgentEndSession(ctx context.Context, req *mcp.CallToolRequest, in memoryIDInput) (*mcp.CallToolResult, any, error) {
	d := s.gateCall("spf_agent_end_session", nil)
	if !d.Allowed {
		return deniedResult(d), nil, nil
	}
	sess, err := s.agent.GetSession(in.ID)
	if err != nil {
		return textResult(fmt.Sprintf("end session error: %v", err)), nil, nil
	}
	if sess == nil {
		return textResult("no such session"), nil, nil
	}
	sess.UpdatedAt = time.Now().Unix()
	if sess.State == nil {
		sess.State = map[string]any{}
	}
	sess.State["ended"] = true
	if _, err := s.agent.PutSession(*sess); err != nil {
		return textResult(fmt.Sprintf("end session error: %v", err)), nil, nil
	}
	return textResult("ended"), nil, nil
}

func (s *Server) handleAgentGetSession(ctx context.Context, req *mcp.CallToolRequest, in memoryIDInput) (*mcp.CallToolResult, any, error) {
	d := s.gateCall("spf_agent_get_session", nil)
	if !d.Allowed {
		return deniedResult(d), nil, nil
	}
	sess, err := s.agent.GetSession(in.ID)
	if err != nil {
		return textResult(fmt.Sprintf("get session error: %v", err)), nil, nil
	}
	if sess == nil {
		return textResult("no such session"), nil, nil
	}
	raw, _ := json.MarshalIndent(sess, "", "  ")
	return textResult(string(raw)), nil, nil
}

// ---- config tools ----

type configFileInput struct {
	File string `json:"file" jsonschema:"one of version, mode, tiers, formula, weights, paths, patterns"`
}

func (s *Server) handleConfigGet(ctx context.Context, req *mcp.CallToolRequest, in configFileInput) (*mcp.CallToolResult, any, error) {
	d := s.gateCall("spf_config_get", nil)
	if !d.Allowed {
		return deniedResult(d), nil, nil
	}
	node, err := s.fsview.Read("/config/" + in.File)
	if err != nil {
		return textResult(fmt.Sprintf("config get error: %v", err)), nil, nil
	}
	return textResult(string(node.Content)), nil, nil
}

func (s *Server) handleConfigGetAll(ctx context.Context, req *mcp.CallToolRequest, in emptyInput) (*mcp.CallToolResult, any, error) {
	d := s.gateCall("spf_config_get_all", nil)
	if !d.Allowed {
		return deniedResult(d), nil, nil
	}
	s.mu.Lock()
	raw, _ := json.MarshalIndent(s.cfg, "", "  ")
	s.mu.Unlock()
	return textResult(string(raw)), nil, nil
}

func (s *Server) handleConfigListPaths(ctx context.Context, req *mcp.CallToolRequest, in emptyInput) (*mcp.CallToolResult, any, error) {
	d := s.gateCall("spf_config_list_paths", nil)
	if !d.Allowed {
		return deniedResult(d), nil, nil
	}
	rules, err := s.configStore.ListPathRules()
	if err != nil {
		return textResult(fmt.Sprintf("list paths error: %v", err)), nil, nil
	}
	raw, _ := json.MarshalIndent(rules, "", "  ")
	return textResult(string(raw)), nil, nil
}

func (s *Server) handleConfigListPatterns(ctx context.Context, req *mcp.CallToolRequest, in emptyInput) (*mcp.CallToolResult, any, error) {
	d := s.gateCall("spf_config_list_patterns", nil)
	if !d.Allowed {
		return deniedResult(d), nil, nil
	}
	patterns, err := s.configStore.ListDangerousPatterns()
	if err != nil {
		return textResult(fmt.Sprintf("list patterns error: %v", err)), nil, nil
	}
	raw, _ := json.MarshalIndent(patterns, "", "  ")
	return textResult(string(raw)), nil, nil
}

// ---- projects tools ----

type projectRootInput struct {
	RootPath string `json:"root_path"`
}

func (s *Server) handleProjectsGet(ctx context.Context, req *mcp.CallToolRequest, in projectRootInput) (*mcp.CallToolResult, any, error) {
	d := s.gateCall("spf_projects_get", nil)
	if !d.Allowed {
		return deniedResult(d), nil, nil
	}
	m, err := s.projects.Get(in.RootPath)
	if err != nil {
		return textResult(fmt.Sprintf("projects get error: %v", err)), nil, nil
	}
	if m == nil {
		return textResult("no such project"), nil, nil
	}
	raw, _ := json.MarshalIndent(m, "", "  ")
	return textResult(string(raw)), nil, nil
}

func (s *Server) handleProjectsList(ctx context.Context, req *mcp.CallToolRequest, in emptyInput) (*mcp.CallToolResult, any, error) {
	d := s.gateCall("spf_projects_list", nil)
	if !d.Allowed {
		return deniedResult(d), nil, nil
	}
	list, err := s.projects.List()
	if err != nil {
		return textResult(fmt.Sprintf("projects list error: %v", err)), nil, nil
	}
	return textResult(strings.Join(list, "\n")), nil, nil
}

func (s *Server) handleProjectsActive(ctx context.Context, req *mcp.CallToolRequest, in emptyInput) (*mcp.CallToolResult, any, error) {
	d := s.gateCall("spf_projects_active", nil)
	if !d.Allowed {
		return deniedResult(d), nil, nil
	}
	active, ok := s.projects.Active()
	if !ok {
		return textResult("no active project"), nil, nil
	}
	return textResult(active), nil, nil
}

func (s *Server) handleProjectsSetActive(ctx context.Context, req *mcp.CallToolRequest, in projectRootInput) (*mcp.CallToolResult, any, error) {
	d := s.gateCall("spf_projects_set_active", nil)
	if !d.Allowed {
		return deniedResult(d), nil, nil
	}
	existing, err := s.projects.Get(in.RootPath)
	if err != nil {
		return textResult(fmt.Sprintf("set active error: %v", err)), nil, nil
	}
	if existing == nil {
		fresh := store.DefaultProjectMetadata(in.RootPath, time.Now())
		if err := s.projects.Set(in.RootPath, fresh); err != nil {
			return textResult(fmt.Sprintf("set active error: %v", err)), nil, nil
		}
	}
	if err := s.projects.SetActive(in.RootPath); err != nil {
		return textResult(fmt.Sprintf("set active error: %v", err)), nil, nil
	}
	if err := s.tmp.SetActiveProject(in.RootPath); err != nil {
		return textResult(fmt.Sprintf("set active error: %v", err)), nil, nil
	}
	return textResult("active project set: " + in.RootPath), nil, nil
}

func (s *Server) handleProjectsStats(ctx context.Context, req *mcp.CallToolRequest, in projectRootInput) (*mcp.CallToolResult, any, error) {
	d := s.gateCall("spf_projects_stats", nil)
	if !d.Allowed {
		return deniedResult(d), nil, nil
	}
	m, err := s.projects.Get(in.RootPath)
	if err != nil {
		return textResult(fmt.Sprintf("projects stats error: %v", err)), nil, nil
	}
	if m == nil {
		return textResult("no such project"), nil, nil
	}
	raw, _ := json.MarshalIndent(struct {
		ReadCount         uint64 `json:"read_count"`
		WriteCount        uint64 `json:"write_count"`
		TotalBytesRead    uint64 `json:"total_bytes_read"`
		TotalBytesWritten uint64 `json:"total_bytes_written"`
		TotalComplexity   uint64 `json:"total_complexity"`
	}{m.ReadCount, m.WriteCount, m.TotalBytesRead, m.TotalBytesWritten, m.TotalComplexity}, "", "  ")
	return textResult(string(raw)), nil, nil
}

// ---- tmp tools ----

func (s *Server) handleTmpGet(ctx context.Context, req *mcp.CallToolRequest, in pathInput) (*mcp.CallToolResult, any, error) {
	d := s.gateCall("spf_tmp_get", nil)
	if !d.Allowed {
		return deniedResult(d), nil, nil
	}
	active, ok := s.tmp.ActiveProject()
	if !ok {
		return textResult("no active project"), nil, nil
	}
	resources, err := s.tmp.ResourcesForProject(active)
	if err != nil {
		return textResult(fmt.Sprintf("tmp get error: %v", err)), nil, nil
	}
	for _, r := range resources {
		if r.Path == in.Path {
			raw, _ := json.MarshalIndent(r, "", "  ")
			return textResult(string(raw)), nil, nil
		}
	}
	return textResult("no such resource"), nil, nil
}

func (s *Server) handleTmpList(ctx context.Context, req *mcp.CallToolRequest, in emptyInput) (*mcp.CallToolResult, any, error) {
	d := s.gateCall("spf_tmp_list", nil)
	if !d.Allowed {
		return deniedResult(d), nil, nil
	}
	active, ok := s.tmp.ActiveProject()
	if !ok {
		return textResult("no active project"), nil, nil
	}
	resources, err := s.tmp.ResourcesForProject(active)
	if err != nil {
		return textResult(fmt.Sprintf("tmp list error: %v", err)), nil, nil
	}
	raw, _ := json.MarshalIndent(resources, "", "  ")
	return textResult(string(raw)), nil, nil
}

type limitInput struct {
	Limit int `json:"limit,omitempty"`
}

func (s *Server) handleTmpAccessLog(ctx context.Context, req *mcp.CallToolRequest, in limitInput) (*mcp.CallToolResult, any, error) {
	d := s.gateCall("spf_tmp_access_log", nil)
	if !d.Allowed {
		return deniedResult(d), nil, nil
	}
	limit := in.Limit
	if limit <= 0 {
		limit = 50
	}
	entries, err := s.tmp.RecentAccess(limit)
	if err != nil {
		return textResult(fmt.Sprintf("access log error: %v", err)), nil, nil
	}
	raw, _ := json.MarshalIndent(entries, "", "  ")
	return textResult(string(raw)), nil, nil
}

func (s *Server) handleTmpActive(ctx context.Context, req *mcp.CallToolRequest, in emptyInput) (*mcp.CallToolResult, any, error) {
	d := s.gateCall("spf_tmp_active", nil)
	if !d.Allowed {
		return deniedResult(d), nil, nil
	}
	active, ok := s.tmp.ActiveProject()
	if !ok {
		return textResult("no active project"), nil, nil
	}
	return textResult(active), nil, nil
}

// ---- opaque external subprocess stubs ----

type externalInput struct {
	Query string `json:"query,omitempty"`
	URL   string `json:"url,omitempty"`
}

// handleExternalStub returns a handler for a tool this gateway routes
// through its enforcement pipeline but never executes itself — the actual
// RAG/brain/web subprocess is an opaque external binary per spec §1.
func (s *Server) handleExternalStub(name string) func(context.Context, *mcp.CallToolRequest, externalInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, in externalInput) (*mcp.CallToolResult, any, error) {
		d := s.gateCall("spf_"+name, map[string]any{"query": in.Query, "url": in.URL})
		if !d.Allowed {
			return deniedResult(d), nil, nil
		}
		return textResult(fmt.Sprintf("delegated to external %s subprocess (not executed in-process)", name)), nil, nil
	}
}
