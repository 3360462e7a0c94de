package voice

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"glucotrack/internal/model"
)

// Engine is the part of the reminder engine the voice tools drive.
type Engine interface {
	AddLog(ctx context.Context, value float64, label model.RoutineLabel) (model.GlucoseLog, error)
	SnoozeLabel(ctx context.Context, label model.RoutineLabel) (bool, error)
}

// RecordTool logs a reading spoken by the user.
type RecordTool struct {
	engine Engine
	logger *zap.Logger
}

func NewRecordTool(e Engine, logger *zap.Logger) *RecordTool {
	return &RecordTool{engine: e, logger: logger}
}

func (t *RecordTool) Definition() mcp.Tool {
	return mcp.NewTool("record_glucose_reading",
		mcp.WithDescription("Record a blood glucose reading in mg/dL for one of the daily routine check-ins."),
		mcp.WithNumber("value",
			mcp.Required(),
			mcp.Description("Reading in mg/dL"),
			mcp.Min(model.MinReading),
			mcp.Max(model.MaxReading),
		),
		mcp.WithString("label",
			mcp.Required(),
			mcp.Description("Routine the reading belongs to"),
			mcp.Enum(model.LabelNames()...),
		),
	)
}

func (t *RecordTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	value, err := req.RequireFloat("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("label")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	label, err := model.ParseLabel(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	entry, err := t.engine.AddLog(ctx, value, label)
	switch {
	case errors.Is(err, model.ErrInvalidInput):
		return mcp.NewToolResultError(err.Error()), nil
	case err != nil && entry.ID == "":
		return nil, err
	case err != nil:
		// kept in memory, durable copy failed
		t.logger.Error("voice reading not persisted", zap.String("id", entry.ID), zap.Error(err))
	}
	return mcp.NewToolResultText(fmt.Sprintf("Recorded %g mg/dL for %s.", entry.Value, entry.Label)), nil
}

// SnoozeTool snoozes the reminder for a routine by label.
type SnoozeTool struct {
	engine Engine
	logger *zap.Logger
}

func NewSnoozeTool(e Engine, logger *zap.Logger) *SnoozeTool {
	return &SnoozeTool{engine: e, logger: logger}
}

func (t *SnoozeTool) Definition() mcp.Tool {
	return mcp.NewTool("snooze_reminder",
		mcp.WithDescription("Snooze the reminder for a routine check-in for a few minutes."),
		mcp.WithString("label",
			mcp.Required(),
			mcp.Description("Routine to snooze"),
			mcp.Enum(model.LabelNames()...),
		),
	)
}

func (t *SnoozeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("label")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	label, err := model.ParseLabel(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	found, err := t.engine.SnoozeLabel(ctx, label)
	if err != nil {
		t.logger.Error("voice snooze not persisted", zap.String("label", string(label)), zap.Error(err))
	}
	if !found {
		return mcp.NewToolResultText(fmt.Sprintf("There is no %s reminder to snooze.", label)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Snoozed the %s reminder.", label)), nil
}
