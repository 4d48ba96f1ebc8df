package mapper

import (
	"encoding/json"

	"collab-platform-be/internal/entity"
	"collab-platform-be/internal/model"

	"gorm.io/datatypes"
)

type JobMapper struct{}

func NewJobMapper() *JobMapper {
	return &JobMapper{}
}

func (m *JobMapper) ToEntity(j *model.Job) *entity.Job {
	if j == nil {
		return nil
	}

	return &entity.Job{
		JobId:       j.JobId,
		Type:        j.Type,
		Status:      entity.JobStatus(j.Status),
		Payload:     jsonToMap(j.Payload),
		Result:      jsonToMap(j.Result),
		Error:       j.Error,
		Progress:    j.Progress,
		RetryCount:  j.RetryCount,
		MaxRetries:  j.MaxRetries,
		UserId:      j.UserId,
		WorkspaceId: j.WorkspaceId,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

func (m *JobMapper) ToModel(j *entity.Job) *model.Job {
	if j == nil {
		return nil
	}

	return &model.Job{
		JobId:       j.JobId,
		Type:        j.Type,
		Status:      string(j.Status),
		Payload:     mapToJSON(j.Payload),
		Result:      mapToJSON(j.Result),
		Error:       j.Error,
		Progress:    j.Progress,
		RetryCount:  j.RetryCount,
		MaxRetries:  j.MaxRetries,
		UserId:      j.UserId,
		WorkspaceId: j.WorkspaceId,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

func (m *JobMapper) ToEntities(jobs []*model.Job) []*entity.Job {
	result := make([]*entity.Job, 0, len(jobs))
	for _, j := range jobs {
		result = append(result, m.ToEntity(j))
	}
	return result
}

func jsonToMap(data datatypes.JSON) map[string]interface{} {
	if len(data) == 0 {
		return nil
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}

func mapToJSON(data map[string]interface{}) datatypes.JSON {
	if data == nil {
		return nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}
