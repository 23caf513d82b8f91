// internal/workers/messaging/handle-message/handler.go
package handlemessage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"biashara-bot/internal/assistant/dispatcher"
	apperrors "biashara-bot/internal/common/errors"
	"biashara-bot/internal/common/logger"
	"biashara-bot/internal/common/metrics"
	"biashara-bot/internal/common/validation"
	"biashara-bot/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "handle-business-message"

var schema = validation.MustCompile(inputSchema)

// Conversation is the part of the dispatcher the worker needs.
type Conversation interface {
	Converse(ctx context.Context, msg models.Message) dispatcher.Result
}

type Handler struct {
	config     *Config
	assistant  Conversation
	logger     logger.Logger
	errHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, assistant Conversation, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		assistant:  assistant,
		logger:     log,
		errHandler: apperrors.NewErrorHandler(log),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	defer func() {
		metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	}()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	input, err := ParseInput(job.Variables)
	if err != nil {
		h.failJob(client, job, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.failJob(client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

// ParseInput validates raw job variables and decodes them.
func ParseInput(variables string) (*Input, error) {
	result, err := schema.ValidateBytes([]byte(variables))
	if err != nil {
		return nil, apperrors.NewInvalidJobVariablesError(err)
	}
	if !result.Valid {
		return nil, apperrors.NewInvalidJobVariablesError(errors.New(result.Summary()))
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, apperrors.NewInvalidJobVariablesError(err)
	}
	return &input, nil
}

// Execute runs one message through the assistant. Only storage failures are
// returned as errors; every other outcome is a normal reply.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	channel := input.Channel
	if channel == "" {
		channel = models.ChannelWorkflow
	}

	res := h.assistant.Converse(ctx, models.Message{
		Channel: channel,
		Sender:  input.Sender,
		Text:    input.Text,
	})
	if res.Code == apperrors.ErrCodeLedgerFailure {
		return nil, res.Err
	}

	return &Output{
		Reply:  res.Reply,
		Intent: string(res.Intent),
		Code:   string(res.Code),
	}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{"error": err.Error()})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{"error": err.Error()})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	code := apperrors.AsStandardError(err).Code
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(code)).Inc()
	h.errHandler.HandleJobError(context.Background(), client, job, err)
}
