package grpc

import (
	"context"
	"errors"
	"fmt"

	"tracker-service/internal/domain/entity"
	"tracker-service/internal/domain/service"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type TrackerServiceHandler struct {
	enrollment  service.EnrollmentService
	checkins    service.CheckinService
	renderer    service.RendererService
	maintenance service.MaintenanceService
	logger      *zap.Logger
}

func NewTrackerServiceHandler(
	enrollment service.EnrollmentService,
	checkins service.CheckinService,
	renderer service.RendererService,
	maintenance service.MaintenanceService,
	logger *zap.Logger,
) *TrackerServiceHandler {
	return &TrackerServiceHandler{
		enrollment:  enrollment,
		checkins:    checkins,
		renderer:    renderer,
		maintenance: maintenance,
		logger:      logger,
	}
}

// malformedInput lists reasons caused by bad request values rather than tracker state
var malformedInput = map[entity.Reason]bool{
	entity.ReasonInvalidCheckinType: true,
	entity.ReasonInvalidFrequency:   true,
	entity.ReasonInvalidDateRange:   true,
	entity.ReasonInvalidGracePeriod: true,
	entity.ReasonInvalidLimit:       true,
	entity.ReasonBreakLimitOnWeekly: true,
	entity.ReasonInvalidEmoji:       true,
}

// toStatus maps service errors onto gRPC status codes. Only validation messages reach the caller.
func (h *TrackerServiceHandler) toStatus(err error, action string) error {
	if _, ok := status.FromError(err); ok {
		return err
	}

	var ve *entity.ValidationError
	if errors.As(err, &ve) {
		code := codes.FailedPrecondition
		if malformedInput[ve.Reason] {
			code = codes.InvalidArgument
		}
		return status.Error(code, fmt.Sprintf("%s: %s", ve.Reason, ve.Message))
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return status.Error(codes.DeadlineExceeded, fmt.Sprintf("timed out while %s", action))
	}

	h.logger.Error("Request failed", zap.String("action", action), zap.Error(err))
	return status.Error(codes.Internal, fmt.Sprintf("An error occurred while %s.", action))
}

func respond(fields map[string]interface{}) (*structpb.Struct, error) {
	resp, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	return resp, nil
}

// RPC Handlers

func (h *TrackerServiceHandler) CreateTracker(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	channelID, err := requiredString(req, "channel_id")
	if err != nil {
		return nil, err
	}

	input := service.CreateTrackerInput{
		ChannelID:   channelID,
		DisplayName: stringField(req, "display_name"),
		Frequency:   entity.Frequency(stringField(req, "frequency")),
		CreatedBy:   stringField(req, "created_by"),
	}
	if input.Frequency == "" {
		input.Frequency = entity.FrequencyDaily
	}
	if input.StartDate, err = dateField(req, "start_date"); err != nil {
		return nil, h.toStatus(err, "creating the tracker")
	}
	if input.EndDate, err = dateField(req, "end_date"); err != nil {
		return nil, h.toStatus(err, "creating the tracker")
	}
	if input.GracePeriodDays, err = optionalInt32(req, "grace_period_days"); err != nil {
		return nil, err
	}
	if input.MaxBreaksPerWeek, err = optionalInt32(req, "max_breaks_per_week"); err != nil {
		return nil, err
	}
	if input.MaxMisses, err = optionalInt32(req, "max_misses"); err != nil {
		return nil, err
	}

	tracker, err := h.enrollment.CreateTracker(ctx, input)
	if err != nil {
		return nil, h.toStatus(err, "creating the tracker")
	}

	return respond(map[string]interface{}{"tracker": trackerToMap(tracker)})
}

func (h *TrackerServiceHandler) EndTracker(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	channelID, err := requiredString(req, "channel_id")
	if err != nil {
		return nil, err
	}

	tracker, err := h.enrollment.EndTracker(ctx, channelID, stringField(req, "actor_id"))
	if err != nil {
		return nil, h.toStatus(err, "ending the tracker")
	}

	return respond(map[string]interface{}{"tracker": trackerToMap(tracker)})
}

func (h *TrackerServiceHandler) Join(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	channelID, err := requiredString(req, "channel_id")
	if err != nil {
		return nil, err
	}
	userID, err := requiredString(req, "user_id")
	if err != nil {
		return nil, err
	}
	emoji, err := requiredString(req, "emoji")
	if err != nil {
		return nil, err
	}

	participant, err := h.enrollment.Join(ctx, channelID, userID, emoji)
	if err != nil {
		return nil, h.toStatus(err, "joining the tracker")
	}

	return respond(map[string]interface{}{
		"participant": participantToMap(participant),
		"message":     fmt.Sprintf("You joined the tracker as %s.", participant.Emoji),
	})
}

func (h *TrackerServiceHandler) Leave(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	channelID, err := requiredString(req, "channel_id")
	if err != nil {
		return nil, err
	}
	userID, err := requiredString(req, "user_id")
	if err != nil {
		return nil, err
	}

	participant, err := h.enrollment.Leave(ctx, channelID, userID)
	if err != nil {
		return nil, h.toStatus(err, "leaving the tracker")
	}

	return respond(map[string]interface{}{
		"participant": participantToMap(participant),
		"message":     fmt.Sprintf("You left the tracker. %s is now available.", participant.Emoji),
	})
}

func (h *TrackerServiceHandler) Remove(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	channelID, err := requiredString(req, "channel_id")
	if err != nil {
		return nil, err
	}
	userID, err := requiredString(req, "user_id")
	if err != nil {
		return nil, err
	}

	participant, err := h.enrollment.Remove(ctx, channelID, userID, stringField(req, "actor_id"))
	if err != nil {
		return nil, h.toStatus(err, "removing the participant")
	}

	return respond(map[string]interface{}{
		"participant": participantToMap(participant),
		"message":     fmt.Sprintf("Participant removed. %s is now available.", participant.Emoji),
	})
}

func (h *TrackerServiceHandler) Unban(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	channelID, err := requiredString(req, "channel_id")
	if err != nil {
		return nil, err
	}
	userID, err := requiredString(req, "user_id")
	if err != nil {
		return nil, err
	}

	if err := h.enrollment.Unban(ctx, channelID, userID, stringField(req, "actor_id")); err != nil {
		return nil, h.toStatus(err, "unbanning the user")
	}

	return respond(map[string]interface{}{"unbanned": true})
}

func (h *TrackerServiceHandler) CheckIn(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	channelID, err := requiredString(req, "channel_id")
	if err != nil {
		return nil, err
	}
	userID, err := requiredString(req, "user_id")
	if err != nil {
		return nil, err
	}

	checkinType := entity.CheckinType(stringField(req, "type"))
	if checkinType == "" {
		checkinType = entity.CheckinTypeDone
	}
	date, err := optionalDate(req, "date")
	if err != nil {
		return nil, h.toStatus(err, "recording the check-in")
	}

	result, err := h.checkins.CheckIn(ctx, service.CheckinInput{
		ChannelID: channelID,
		UserID:    userID,
		Type:      checkinType,
		Date:      date,
		MessageID: stringField(req, "message_id"),
	})
	if err != nil {
		return nil, h.toStatus(err, "recording the check-in")
	}

	return respond(map[string]interface{}{
		"checkin": checkinToMap(result.Checkin),
		"created": result.Created,
	})
}

func (h *TrackerServiceHandler) RenderGrid(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	channelID, err := requiredString(req, "channel_id")
	if err != nil {
		return nil, err
	}

	text, err := h.renderer.RenderText(ctx, channelID)
	if err != nil {
		return nil, h.toStatus(err, "rendering the grid")
	}

	return respond(map[string]interface{}{"text": text})
}

func (h *TrackerServiceHandler) RunMaintenance(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	report := h.maintenance.RunDaily(ctx)
	if report.Err != nil {
		h.logger.Warn("Manual maintenance finished with errors", zap.Error(report.Err))
	}
	return respond(reportToMap(report))
}

func (h *TrackerServiceHandler) RunSnapshots(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	report := h.maintenance.RunWeeklySnapshots(ctx)
	if report.Err != nil {
		h.logger.Warn("Manual snapshot run finished with errors", zap.Error(report.Err))
	}
	return respond(reportToMap(report))
}
