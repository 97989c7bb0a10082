package handler

import (
	"github.com/go-playground/validator/v10"

	"github.com/stockmeta/api/internal/batch"
	"github.com/stockmeta/api/internal/model"
	"github.com/stockmeta/api/internal/service"
)

// ValidationErrorDetail describes a single failed field validation.
type ValidationErrorDetail struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Value string `json:"value,omitempty"`
}

func formatValidationErrors(err error) []ValidationErrorDetail {
	var details []ValidationErrorDetail
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, ve := range verrs {
			details = append(details, ValidationErrorDetail{
				Field: ve.Field(),
				Tag:   ve.Tag(),
				Value: ve.Param(),
			})
		}
	}
	return details
}

// ItemView is the API representation of a batch item.
type ItemView struct {
	ID            string              `json:"id"`
	FileName      string              `json:"fileName"`
	FileSize      int64               `json:"fileSize"`
	MediaKind     model.MediaKind     `json:"mediaKind"`
	Metadata      model.Metadata      `json:"metadata"`
	Status        model.ProcessStatus `json:"status"`
	LastError     string              `json:"lastError,omitempty"`
	HistoryIndex  int                 `json:"historyIndex"`
	HistoryLength int                 `json:"historyLength"`
	CanUndo       bool                `json:"canUndo"`
	CanRedo       bool                `json:"canRedo"`
	CreatedAt     string              `json:"createdAt"`
}

func itemView(store *batch.Store, it model.BatchItem) ItemView {
	index, length, _ := store.HistoryState(it.ID)
	return ItemView{
		ID:            it.ID,
		FileName:      it.FileName,
		FileSize:      it.FileSize,
		MediaKind:     it.MediaKind,
		Metadata:      it.Metadata,
		Status:        it.Status,
		LastError:     it.LastError,
		HistoryIndex:  index,
		HistoryLength: length,
		CanUndo:       index > 0,
		CanRedo:       index < length-1,
		CreatedAt:     it.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

func itemViews(sess *service.Session) []ItemView {
	items := sess.Store.Items()
	views := make([]ItemView, 0, len(items))
	for _, it := range items {
		views = append(views, itemView(sess.Store, it))
	}
	return views
}
