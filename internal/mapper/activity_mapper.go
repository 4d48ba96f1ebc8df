package mapper

import (
	"collab-platform-be/internal/entity"
	"collab-platform-be/internal/model"
)

type ActivityMapper struct{}

func NewActivityMapper() *ActivityMapper {
	return &ActivityMapper{}
}

func (m *ActivityMapper) ToEntity(a *model.Activity) *entity.Activity {
	if a == nil {
		return nil
	}

	return &entity.Activity{
		Id:          a.Id,
		WorkspaceId: a.WorkspaceId,
		UserId:      a.UserId,
		UserName:    a.UserName,
		EventType:   a.EventType,
		Payload:     jsonToMap(a.Payload),
		Timestamp:   a.Timestamp,
		CreatedAt:   a.CreatedAt,
	}
}

func (m *ActivityMapper) ToModel(a *entity.Activity) *model.Activity {
	if a == nil {
		return nil
	}

	return &model.Activity{
		Id:          a.Id,
		WorkspaceId: a.WorkspaceId,
		UserId:      a.UserId,
		UserName:    a.UserName,
		EventType:   a.EventType,
		Payload:     mapToJSON(a.Payload),
		Timestamp:   a.Timestamp,
		CreatedAt:   a.CreatedAt,
	}
}

func (m *ActivityMapper) ToEntities(activities []*model.Activity) []*entity.Activity {
	result := make([]*entity.Activity, 0, len(activities))
	for _, a := range activities {
		result = append(result, m.ToEntity(a))
	}
	return result
}
