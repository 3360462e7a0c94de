package voice

import (
	"net/http"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// Version is reported to MCP clients.
var Version = "dev"

const instructions = `You help a person living with diabetes keep their daily glucose routine.
Use record_glucose_reading when they tell you a reading, and snooze_reminder when they ask
to be reminded later. Be brief and encouraging, never judgmental.`

// NewServer registers the voice tools on a fresh MCP server.
func NewServer(e Engine, logger *zap.Logger) *server.MCPServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := server.NewMCPServer(
		"glucotrack",
		Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	record := NewRecordTool(e, logger)
	s.AddTool(record.Definition(), record.Handle)

	snooze := NewSnoozeTool(e, logger)
	s.AddTool(snooze.Definition(), snooze.Handle)

	return s
}

// Handler serves s over streamable HTTP.
func Handler(s *server.MCPServer) http.Handler {
	return server.NewStreamableHTTPServer(s)
}
