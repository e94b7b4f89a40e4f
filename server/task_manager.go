// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	a2a "github.com/go-a2a/a2a-taskserver"
	"github.com/go-a2a/a2a-taskserver/agent"
	"github.com/go-a2a/a2a-taskserver/internal/telemetry"
	"github.com/go-a2a/a2a-taskserver/server/task"
)

// CanceledMessage is the text of the agent message recorded when a task is canceled.
const CanceledMessage = "Task canceled"

// AgentFilter narrows the agents a caller may reach. It receives the merged
// configured and registry agents and returns the subset to search.
type AgentFilter func(ctx context.Context, agents []agent.Agent, cc *CallContext) []agent.Agent

// TaskManager executes A2A task operations against agents, persisting every
// observable step to a [task.Store].
//
// Concurrent calls on the same task are not serialized. A cancel only signals
// the in-flight execution and writes a terminal record; executions check
// whether they were signaled before trusting their own outcome.
type TaskManager struct {
	store    task.Store
	agents   []agent.Agent
	registry *agent.Registry
	filter   AgentFilter
	ops      *task.OperationRegistry
	logger   *slog.Logger
	tracer   trace.Tracer
	metrics  *telemetry.Metrics
}

// NewTaskManager creates a TaskManager. Without options it uses an in-memory
// store, no agents, [slog.Default] and the global OpenTelemetry providers.
func NewTaskManager(opts ...Option) *TaskManager {
	tm := &TaskManager{}
	for _, o := range opts {
		o(tm)
	}
	if tm.store == nil {
		tm.store = task.NewInMemoryStore()
	}
	if tm.logger == nil {
		tm.logger = slog.Default()
	}
	if tm.tracer == nil {
		tm.tracer = telemetry.Tracer()
	}
	if tm.metrics == nil {
		tm.metrics = telemetry.Default()
	}
	if tm.ops == nil {
		metrics := tm.metrics
		tm.ops = task.NewOperationRegistry(task.WithActiveHook(func(delta int) {
			metrics.AddActive(context.Background(), delta)
		}))
	}
	return tm
}

// Operations returns the registry of in-flight operations.
func (tm *TaskManager) Operations() *task.OperationRegistry {
	return tm.ops
}

// Agents returns the agents visible to cc: configured agents, then registry
// agents not shadowed by a configured one, passed through the filter.
func (tm *TaskManager) Agents(ctx context.Context, cc *CallContext) []agent.Agent {
	agents := agent.Merge(tm.agents, tm.registry)
	if tm.filter != nil {
		agents = tm.filter(ctx, agents, cc)
	}
	return agents
}

// ResolveAgent returns the agent addressed by agentID among [TaskManager.Agents].
func (tm *TaskManager) ResolveAgent(ctx context.Context, agentID string, cc *CallContext) (agent.Agent, error) {
	if err := agent.ValidateID(agentID); err != nil {
		return nil, &a2a.InvalidRequestError{Msg: err.Error()}
	}
	for _, a := range tm.Agents(ctx, cc) {
		if a.Info().ID == agentID {
			return a, nil
		}
	}
	return nil, &a2a.InvalidRequestError{Msg: fmt.Sprintf("agent %q not found", agentID)}
}

// execution is the prepared state of one send or stream call.
type execution struct {
	agent   agent.Agent
	agentID string
	task    *a2a.Task
	content string
	opts    agent.CallOptions
	op      *task.Operation
}

func (e *execution) taskID() string    { return e.task.ID }
func (e *execution) contextID() string { return e.task.ContextID }

// prepare validates params, resolves the agent, loads or creates the record,
// registers the operation handle and persists the record.
func (tm *TaskManager) prepare(ctx context.Context, agentID string, params *a2a.MessageSendParams, cc *CallContext, streaming bool) (*execution, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	ag, err := tm.ResolveAgent(ctx, agentID, cc)
	if err != nil {
		return nil, err
	}

	taskID := cmp.Or(params.ID, params.Message.TaskID)
	if taskID == "" {
		taskID = uuid.NewString()
	}

	current, err := tm.store.Load(ctx, agentID, taskID)
	switch {
	case errors.Is(err, task.ErrTaskNotFound):
		current = nil
	case err != nil:
		return nil, a2a.NewInternalError(taskID, err)
	}
	if current != nil && current.Status.State.Terminal() {
		tm.logger.InfoContext(ctx, "replacing terminal task",
			slog.String("agent_id", agentID), slog.String("task_id", taskID), slog.String("state", string(current.Status.State)))
		current = nil
	}

	contextID := cmp.Or(params.Message.ContextID, params.SessionID)
	if contextID == "" && current != nil {
		contextID = current.ContextID
	}
	if contextID == "" {
		contextID = uuid.NewString()
	}

	message := params.Message.Clone()
	message.TaskID = taskID
	message.ContextID = contextID
	message.Kind = a2a.KindMessage
	if message.Role == "" {
		message.Role = a2a.RoleUser
	}
	if message.MessageID == "" {
		message.MessageID = uuid.NewString()
	}

	var record *a2a.Task
	if current == nil {
		record = a2a.NewTask(message, params.Metadata)
		if streaming {
			record = a2a.TransitionStatus(record, a2a.StatusUpdate{State: a2a.TaskStateWorking})
		}
	} else {
		record = a2a.AppendMessage(current, message)
		record = a2a.TransitionStatus(record, a2a.StatusUpdate{State: a2a.TaskStateWorking})
	}

	// registered before the save: a cancel that can load the record must find a handle
	op := tm.ops.Register(ctx, agentID, record.ID)
	if err := tm.save(ctx, agentID, record); err != nil {
		op.Release()
		return nil, err
	}

	return &execution{
		agent:   ag,
		agentID: agentID,
		task:    record,
		content: message.Text(),
		opts: agent.CallOptions{
			ConversationID: record.ContextID,
			TaskID:         record.ID,
			UserID:         cc.UserID(),
			ContextMap:     a2a.MergeMetadata(params.Metadata, message.Metadata, cc.State()),
		},
		op: op,
	}, nil
}

// SendMessage runs one agent turn for the task addressed by params and
// returns the completed task.
//
// A failure of the agent is returned as an [*a2a.InternalError] and leaves the
// task as it was persisted before the agent call, so the same task id can be
// retried. A concurrent cancel always wins: the canceled record is returned
// instead of the agent's result.
func (tm *TaskManager) SendMessage(ctx context.Context, agentID string, params *a2a.MessageSendParams, cc *CallContext) (*a2a.Task, error) {
	ctx, span := tm.tracer.Start(ctx, "a2a.task_manager.SendMessage",
		trace.WithAttributes(telemetry.AttrAgentID.String(agentID)))
	defer span.End()

	exec, err := tm.prepare(ctx, agentID, params, cc, false)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	defer exec.op.Release()
	span.SetAttributes(telemetry.AttrTaskID.String(exec.taskID()))

	persistCtx := context.WithoutCancel(ctx)
	res, err := exec.agent.Generate(exec.op.Context(), exec.content, exec.opts)
	if exec.op.Signaled() {
		return tm.reconcileCanceled(persistCtx, agentID, exec.taskID())
	}
	if err == nil && res == nil {
		err = errors.New("agent returned no result")
	}
	if err != nil {
		tm.logger.ErrorContext(ctx, "agent generate failed",
			slog.String("agent_id", agentID), slog.String("task_id", exec.taskID()), slog.Any("error", err))
		err = a2a.NewInternalError(exec.taskID(), err)
		recordError(span, err)
		return nil, err
	}

	reply := a2a.NewAgentTextMessage(res.Text, exec.taskID(), exec.contextID())
	record := a2a.AppendMessage(exec.task, reply)
	record = a2a.TransitionStatus(record, a2a.StatusUpdate{State: a2a.TaskStateCompleted, Message: &reply})
	record = a2a.WithMetadata(record, completionMetadata(res.FinishReason, res.Usage))

	if exec.op.Signaled() {
		return tm.reconcileCanceled(persistCtx, agentID, exec.taskID())
	}
	if err := tm.save(persistCtx, agentID, record); err != nil {
		recordError(span, err)
		return nil, err
	}
	// a cancel that slipped in between the check and the save still wins
	if exec.op.Signaled() {
		return tm.reconcileCanceled(persistCtx, agentID, exec.taskID())
	}

	tm.logger.InfoContext(ctx, "task completed",
		slog.String("agent_id", agentID), slog.String("task_id", record.ID), slog.Int("history", len(record.History)))
	return record, nil
}

// StreamMessage runs one agent turn incrementally. Setup failures are returned
// directly. The returned sequence yields one success envelope for request id
// per persisted snapshot: the working task, the empty agent reply, one per
// non-empty chunk, and finally the completed or canceled task. An agent failure
// marks the task failed and ends the sequence with an error envelope.
//
// The sequence can be consumed once. Stopping early, or the end of ctx, releases
// the operation without writing a terminal state.
func (tm *TaskManager) StreamMessage(ctx context.Context, id any, agentID string, params *a2a.MessageSendParams, cc *CallContext) (iter.Seq[*a2a.JSONRPCResponse], error) {
	setupCtx, span := tm.tracer.Start(ctx, "a2a.task_manager.StreamMessage",
		trace.WithAttributes(telemetry.AttrAgentID.String(agentID)))
	defer span.End()

	exec, err := tm.prepare(setupCtx, agentID, params, cc, true)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	span.SetAttributes(telemetry.AttrTaskID.String(exec.taskID()))

	stop := context.AfterFunc(ctx, exec.op.Release)
	var consumed atomic.Bool

	return func(yield func(*a2a.JSONRPCResponse) bool) {
		if !consumed.CompareAndSwap(false, true) {
			return
		}
		ctx, span := tm.tracer.Start(ctx, "a2a.task_manager.streamTask",
			trace.WithAttributes(telemetry.AttrAgentID.String(agentID), telemetry.AttrTaskID.String(exec.taskID())))
		defer span.End()
		defer stop()
		defer exec.op.Release()
		defer tm.ops.ClearCancelPending(agentID, exec.taskID())

		tm.runStream(ctx, id, exec, yield)
	}, nil
}

func (tm *TaskManager) runStream(ctx context.Context, id any, exec *execution, yield func(*a2a.JSONRPCResponse) bool) {
	persistCtx := context.WithoutCancel(ctx)
	op := exec.op
	record := exec.task
	emit := func(t *a2a.Task) bool {
		return yield(a2a.NewSuccessResponse(id, t.Clone()))
	}

	if !emit(record) {
		return
	}

	var (
		reply    a2a.Message
		appended bool
	)
	fail := func(err error) {
		tm.streamFailed(ctx, persistCtx, id, exec, record, reply, appended, err, yield)
	}

	res, err := exec.agent.Stream(op.Context(), exec.content, exec.opts)
	if err == nil && res == nil {
		err = errors.New("agent returned no stream")
	}
	if err != nil {
		fail(err)
		return
	}

	reply = a2a.NewAgentTextMessage("", exec.taskID(), exec.contextID())
	record = a2a.AppendMessage(record, reply)
	record = a2a.TransitionStatus(record, a2a.StatusUpdate{State: a2a.TaskStateWorking, Message: &reply})
	appended = true
	if op.Signaled() {
		fail(task.ErrTaskCanceled)
		return
	}
	if err := tm.save(persistCtx, exec.agentID, record); err != nil {
		fail(err)
		return
	}
	if !emit(record) {
		return
	}

	var text strings.Builder
	for chunk, err := range res.Chunks {
		if err != nil {
			fail(err)
			return
		}
		if chunk == "" {
			continue
		}
		if op.Signaled() {
			fail(task.ErrTaskCanceled)
			return
		}

		text.WriteString(chunk)
		reply = reply.WithText(text.String())
		record = a2a.UpdateLastMessage(record, reply)
		record = a2a.TransitionStatus(record, a2a.StatusUpdate{State: a2a.TaskStateWorking, Message: &reply})
		if err := tm.save(persistCtx, exec.agentID, record); err != nil {
			fail(err)
			return
		}
		tm.metrics.RecordChunk(ctx, exec.agentID)
		if !emit(record) {
			return
		}
	}

	final := text.String()
	if final == "" && res.Text != nil {
		final, err = res.Text(op.Context())
		if err != nil {
			fail(err)
			return
		}
	}
	reply = reply.WithText(final)
	record = a2a.UpdateLastMessage(record, reply)
	record = a2a.TransitionStatus(record, a2a.StatusUpdate{State: a2a.TaskStateCompleted, Message: &reply})
	record = a2a.WithMetadata(record, completionMetadata(
		resolveBestEffort(op.Context(), res.FinishReason),
		resolveBestEffort(op.Context(), res.Usage),
	))

	if op.Signaled() {
		fail(task.ErrTaskCanceled)
		return
	}
	if err := tm.save(persistCtx, exec.agentID, record); err != nil {
		fail(err)
		return
	}
	if op.Signaled() {
		fail(task.ErrTaskCanceled)
		return
	}

	tm.logger.InfoContext(ctx, "task completed",
		slog.String("agent_id", exec.agentID), slog.String("task_id", record.ID), slog.Int("chars", len(final)))
	emit(record)
}

// streamFailed ends a stream after err. A signaled operation reconciles to the
// canceled record. A caller that went away leaves the record as it is.
// Otherwise the task is marked failed and an error envelope is emitted.
func (tm *TaskManager) streamFailed(ctx, persistCtx context.Context, id any, exec *execution, record *a2a.Task, reply a2a.Message, appended bool, cause error, yield func(*a2a.JSONRPCResponse) bool) {
	if exec.op.Signaled() {
		canceled, err := tm.reconcileCanceled(persistCtx, exec.agentID, exec.taskID())
		if err != nil {
			yield(a2a.NewErrorResponse(id, err))
			return
		}
		yield(a2a.NewSuccessResponse(id, canceled))
		return
	}
	if ctx.Err() != nil {
		tm.logger.InfoContext(persistCtx, "stream abandoned by caller",
			slog.String("agent_id", exec.agentID), slog.String("task_id", exec.taskID()), slog.Any("error", context.Cause(ctx)))
		return
	}

	tm.logger.ErrorContext(ctx, "agent stream failed",
		slog.String("agent_id", exec.agentID), slog.String("task_id", exec.taskID()), slog.Any("error", cause))
	trace.SpanFromContext(ctx).RecordError(cause)

	var failure a2a.Message
	if appended {
		failure = reply.WithText("Error: " + cause.Error())
		record = a2a.UpdateLastMessage(record, failure)
	} else {
		failure = a2a.NewAgentTextMessage("Error: "+cause.Error(), exec.taskID(), exec.contextID())
		record = a2a.AppendMessage(record, failure)
	}
	record = a2a.TransitionStatus(record, a2a.StatusUpdate{State: a2a.TaskStateFailed, Message: &failure})
	if err := tm.save(persistCtx, exec.agentID, record); err != nil {
		tm.logger.ErrorContext(ctx, "persisting failed task",
			slog.String("task_id", exec.taskID()), slog.Any("error", err))
	}
	yield(a2a.NewErrorResponse(id, a2a.NewInternalError(exec.taskID(), cause)))
}

// GetTask returns the stored task addressed by params. A positive
// params.HistoryLength trims the returned copy to the last messages.
func (tm *TaskManager) GetTask(ctx context.Context, agentID string, params *a2a.TaskQueryParams) (*a2a.Task, error) {
	ctx, span := tm.tracer.Start(ctx, "a2a.task_manager.GetTask",
		trace.WithAttributes(telemetry.AttrAgentID.String(agentID)))
	defer span.End()

	if err := params.Validate(); err != nil {
		recordError(span, err)
		return nil, err
	}
	span.SetAttributes(telemetry.AttrTaskID.String(params.ID))

	current, err := tm.load(ctx, agentID, params.ID)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	return a2a.TrimHistory(current, params.HistoryLength), nil
}

// CancelTask cancels the task addressed by params and returns the canceled
// record. It fails with [*a2a.TaskNotCancelableError] when the task is
// already terminal.
func (tm *TaskManager) CancelTask(ctx context.Context, agentID string, params *a2a.TaskIDParams) (*a2a.Task, error) {
	ctx, span := tm.tracer.Start(ctx, "a2a.task_manager.CancelTask",
		trace.WithAttributes(telemetry.AttrAgentID.String(agentID)))
	defer span.End()

	if err := params.Validate(); err != nil {
		recordError(span, err)
		return nil, err
	}
	taskID := params.ID
	span.SetAttributes(telemetry.AttrTaskID.String(taskID))

	current, err := tm.load(ctx, agentID, taskID)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	if err := a2a.EnsureCancelable(current); err != nil {
		recordError(span, err)
		return nil, err
	}

	tm.ops.MarkCancelPending(agentID, taskID)
	defer tm.ops.ClearCancelPending(agentID, taskID)
	signaled := tm.ops.Signal(agentID, taskID)

	msg := a2a.NewAgentTextMessage(CanceledMessage, taskID, current.ContextID)
	record := a2a.AppendMessage(current, msg)
	record = a2a.TransitionStatus(record, a2a.StatusUpdate{State: a2a.TaskStateCanceled, Message: &msg})
	if err := tm.save(context.WithoutCancel(ctx), agentID, record); err != nil {
		recordError(span, err)
		return nil, err
	}

	tm.logger.InfoContext(ctx, "task canceled",
		slog.String("agent_id", agentID), slog.String("task_id", taskID), slog.Bool("in_flight", signaled))
	return record, nil
}

// reconcileCanceled collapses the outcome of a canceled execution onto one
// canceled record. A record already canceled by the cancel call is returned
// as is; otherwise a single cancellation message is recorded.
func (tm *TaskManager) reconcileCanceled(ctx context.Context, agentID, taskID string) (*a2a.Task, error) {
	current, err := tm.load(ctx, agentID, taskID)
	if err != nil {
		return nil, err
	}
	if current.Status.State == a2a.TaskStateCanceled {
		return current, nil
	}

	var record *a2a.Task
	msg, ok := current.LastMessage()
	if ok && msg.Role == a2a.RoleAgent && msg.Text() == CanceledMessage {
		record = current
	} else {
		msg = a2a.NewAgentTextMessage(CanceledMessage, taskID, current.ContextID)
		record = a2a.AppendMessage(current, msg)
	}
	record = a2a.TransitionStatus(record, a2a.StatusUpdate{State: a2a.TaskStateCanceled, Message: &msg})
	if err := tm.save(ctx, agentID, record); err != nil {
		return nil, err
	}

	tm.logger.InfoContext(ctx, "task execution canceled",
		slog.String("agent_id", agentID), slog.String("task_id", taskID))
	return record, nil
}

func (tm *TaskManager) load(ctx context.Context, agentID, taskID string) (*a2a.Task, error) {
	t, err := tm.store.Load(ctx, agentID, taskID)
	if err != nil {
		if errors.Is(err, task.ErrTaskNotFound) {
			return nil, &a2a.TaskNotFoundError{TaskID: taskID}
		}
		return nil, a2a.NewInternalError(taskID, err)
	}
	return t, nil
}

func (tm *TaskManager) save(ctx context.Context, agentID string, t *a2a.Task) error {
	if err := tm.store.Save(ctx, agentID, t.ID, t); err != nil {
		return a2a.NewInternalError(t.ID, err)
	}
	tm.metrics.RecordTransition(ctx, agentID, string(t.Status.State))
	return nil
}

// completionMetadata builds the metadata merged into a completed task.
func completionMetadata(finishReason string, usage *agent.Usage) map[string]any {
	md := make(map[string]any, 2)
	if finishReason != "" {
		md["finishReason"] = finishReason
	}
	if usage != nil {
		md["usage"] = map[string]any{
			"promptTokens":     usage.PromptTokens,
			"completionTokens": usage.CompletionTokens,
			"totalTokens":      usage.TotalTokens,
		}
	}
	return md
}

// resolveBestEffort resolves an optional deferred value. A missing resolver
// or a failing one yields the zero value.
func resolveBestEffort[T any](ctx context.Context, fn func(context.Context) (T, error)) T {
	var zero T
	if fn == nil {
		return zero
	}
	v, err := fn(ctx)
	if err != nil {
		return zero
	}
	return v
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
