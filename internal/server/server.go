// Package server wires every component into MCP tool and resource
// registrations and creates the server instance.
//
// This is the composition root (DIP): it creates concrete
// implementations and injects them into the tools/resources that
// depend on abstractions. No domain logic lives here — only wiring
// (grounded on the teacher's internal/server/server.go).
package server

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/anthropics/agentctl/internal/appconfig"
	"github.com/anthropics/agentctl/internal/board"
	"github.com/anthropics/agentctl/internal/customtool"
	"github.com/anthropics/agentctl/internal/gatewayclient"
	"github.com/anthropics/agentctl/internal/knowledge"
	"github.com/anthropics/agentctl/internal/queue"
	"github.com/anthropics/agentctl/internal/resources"
	"github.com/anthropics/agentctl/internal/sessiontemplate"
	"github.com/anthropics/agentctl/internal/subagents"
	"github.com/anthropics/agentctl/internal/tools"
	"github.com/anthropics/agentctl/internal/workflow"
	"github.com/anthropics/agentctl/internal/workspace"
)

// Version is set at build time via ldflags.
var Version = "dev"

// ConfigFileName is the config file server.New looks for at the
// resolved workspace root.
const ConfigFileName = "agentctl.yaml"

// builtinToolNames lists every statically-wired tool name, so
// customtool_register's collision check (spec.md §4.5 "Registration")
// has a fixed set to check against without introspecting the server.
var builtinToolNames = []string{
	"queue_add", "queue_claim", "queue_complete", "queue_fail", "queue_retry",
	"queue_pending", "queue_stats", "queue_clear",
	"board_post", "board_read", "board_list", "board_clear",
	"knowledge_set", "knowledge_get", "knowledge_delete", "knowledge_list",
	"knowledge_query", "knowledge_categories",
	"sessiontemplate_list", "sessiontemplate_apply",
	"workflow_run", "workflow_status",
	"customtool_register", "customtool_invoke", "customtool_list",
}

func now() int64 { return time.Now().UnixMilli() }

// New creates and configures the MCP server with every tool and
// resource registered. This is the single place where all
// dependencies are resolved.
func New() (*server.MCPServer, error) {
	root, err := workspace.WalkUpResolver{}.Root()
	if err != nil {
		return nil, fmt.Errorf("resolving workspace root: %w", err)
	}

	config, err := appconfig.Load(filepath.Join(root, ConfigFileName))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	gateway := gatewayclient.NewHTTPClient(config.GatewayBaseURL)
	registry := subagents.New()

	// --- Create core components ---

	queueStore := queue.New(root, now)
	boards := board.New(root, now)
	knowledgeStore := knowledge.New(root, now)
	templates := sessiontemplate.New(config, gateway)
	engine := workflow.New(config, gateway, registry, root, now)
	customTools := customtool.NewRegistry()

	builtinNames := make(map[string]bool, len(builtinToolNames))
	for _, name := range builtinToolNames {
		builtinNames[name] = true
	}
	customTools.Seed(config.Tools, builtinNames)

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"agentctl",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register queue tools ---

	queueAddTool := tools.NewQueueAddTool(queueStore)
	s.AddTool(queueAddTool.Definition(), queueAddTool.Handle)

	queueClaimTool := tools.NewQueueClaimTool(queueStore)
	s.AddTool(queueClaimTool.Definition(), queueClaimTool.Handle)

	queueCompleteTool := tools.NewQueueCompleteTool(queueStore)
	s.AddTool(queueCompleteTool.Definition(), queueCompleteTool.Handle)

	queueFailTool := tools.NewQueueFailTool(queueStore)
	s.AddTool(queueFailTool.Definition(), queueFailTool.Handle)

	queueRetryTool := tools.NewQueueRetryTool(queueStore)
	s.AddTool(queueRetryTool.Definition(), queueRetryTool.Handle)

	queuePendingTool := tools.NewQueuePendingTool(queueStore)
	s.AddTool(queuePendingTool.Definition(), queuePendingTool.Handle)

	queueStatsTool := tools.NewQueueStatsTool(queueStore)
	s.AddTool(queueStatsTool.Definition(), queueStatsTool.Handle)

	queueClearTool := tools.NewQueueClearTool(queueStore)
	s.AddTool(queueClearTool.Definition(), queueClearTool.Handle)

	// --- Register board tools ---

	boardPostTool := tools.NewBoardPostTool(boards)
	s.AddTool(boardPostTool.Definition(), boardPostTool.Handle)

	boardReadTool := tools.NewBoardReadTool(boards)
	s.AddTool(boardReadTool.Definition(), boardReadTool.Handle)

	boardListTool := tools.NewBoardListTool(boards)
	s.AddTool(boardListTool.Definition(), boardListTool.Handle)

	boardClearTool := tools.NewBoardClearTool(boards)
	s.AddTool(boardClearTool.Definition(), boardClearTool.Handle)

	// --- Register knowledge tools ---

	knowledgeSetTool := tools.NewKnowledgeSetTool(knowledgeStore)
	s.AddTool(knowledgeSetTool.Definition(), knowledgeSetTool.Handle)

	knowledgeGetTool := tools.NewKnowledgeGetTool(knowledgeStore)
	s.AddTool(knowledgeGetTool.Definition(), knowledgeGetTool.Handle)

	knowledgeDeleteTool := tools.NewKnowledgeDeleteTool(knowledgeStore)
	s.AddTool(knowledgeDeleteTool.Definition(), knowledgeDeleteTool.Handle)

	knowledgeListTool := tools.NewKnowledgeListTool(knowledgeStore)
	s.AddTool(knowledgeListTool.Definition(), knowledgeListTool.Handle)

	knowledgeQueryTool := tools.NewKnowledgeQueryTool(knowledgeStore)
	s.AddTool(knowledgeQueryTool.Definition(), knowledgeQueryTool.Handle)

	knowledgeCategoriesTool := tools.NewKnowledgeCategoriesTool(knowledgeStore)
	s.AddTool(knowledgeCategoriesTool.Definition(), knowledgeCategoriesTool.Handle)

	// --- Register session template tools ---

	sessionTemplateListTool := tools.NewSessionTemplateListTool(templates)
	s.AddTool(sessionTemplateListTool.Definition(), sessionTemplateListTool.Handle)

	sessionTemplateApplyTool := tools.NewSessionTemplateApplyTool(templates)
	s.AddTool(sessionTemplateApplyTool.Definition(), sessionTemplateApplyTool.Handle)

	// --- Register workflow tools ---

	workflowRunTool := tools.NewWorkflowRunTool(engine)
	s.AddTool(workflowRunTool.Definition(), workflowRunTool.Handle)

	workflowStatusTool := tools.NewWorkflowStatusTool(root)
	s.AddTool(workflowStatusTool.Definition(), workflowStatusTool.Handle)

	// --- Register custom tools ---

	customToolRegisterTool := tools.NewCustomToolRegisterTool(customTools, builtinNames)
	s.AddTool(customToolRegisterTool.Definition(), customToolRegisterTool.Handle)

	customToolInvokeTool := tools.NewCustomToolInvokeTool(customTools)
	s.AddTool(customToolInvokeTool.Definition(), customToolInvokeTool.Handle)

	customToolListTool := tools.NewCustomToolListTool(customTools)
	s.AddTool(customToolListTool.Definition(), customToolListTool.Handle)

	// --- Register resources ---

	statusHandler := resources.NewHandler(queueStore, boards, root)
	s.AddResource(statusHandler.StatusResource(), statusHandler.HandleStatus)

	return s, nil
}

// serverInstructions returns the system instructions that tell the AI
// how to use the orchestrator effectively.
func serverInstructions() string {
	return `You have access to an orchestration server for coordinating multiple agents working on the same workspace.

## Components

- **queue**: a priority work queue. Producers call queue_add; workers loop
  queue_claim -> do the work -> queue_complete or queue_fail. Failed tasks
  retry automatically up to their maxRetries, then land in a terminal
  failed state. Use queue_pending/queue_stats to check on progress.
- **board**: named append-only logs for informal coordination between
  agents (board_post, board_read with a since cursor, board_list,
  board_clear).
- **knowledge**: a categorized key-value store for anything agents should
  share (knowledge_set/get/delete/list/query/categories). Query filters
  match strings as case-insensitive substrings and everything else by
  strict equality.
- **sessiontemplate**: named model/thinking presets applied to a session
  via sessiontemplate_apply.
- **workflow**: run a set of steps as sub-agent spawns, either
  sequential (stop on first failure), parallel (fan out, admit all), or
  dag (dependency order). workflow_run persists a checkpoint as it goes
  so a crashed run can be resumed with resume=true; workflow_status
  reads that checkpoint without resuming it.
- **customtool**: register (customtool_register), invoke
  (customtool_invoke), and list (customtool_list) HTTP- or
  script-backed tools declared at runtime.

## Coordination patterns

When splitting work across several agents:
1. One agent enumerates the work and calls queue_add for each unit.
2. Each worker agent loops: queue_claim, do the work, queue_complete
   (or queue_fail on error — it will be retried automatically).
3. Use a board for status updates that don't fit the queue's shape, e.g.
   "board_post(board='status', message='starting task 4')".
4. Use knowledge for anything durable multiple agents need to read, such
   as a shared plan or a discovered fact about the codebase.
5. For a fixed, known set of steps rather than an open queue, prefer
   workflow_run over hand-rolling the coordination yourself.

Read orchestrator://status for a quick snapshot of queue depth, known
boards, and any in-flight workflows before deciding how to proceed.`
}
