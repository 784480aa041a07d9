package dto

import (
	"time"

	"github.com/crmforge/meeting-scheduler/internal/domain/scheduling"
	"github.com/crmforge/meeting-scheduler/internal/timezone"
)

type SlotDTO struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	StartLocal      string    `json:"startLocal"`
	EndLocal        string    `json:"endLocal"`
	DurationMinutes int       `json:"durationMinutes"`
}

const localLayout = "2006-01-02 15:04"

func NewSlotDTO(s scheduling.Slot, tz string) SlotDTO {
	loc := timezone.Location(tz)
	return SlotDTO{
		Start:           s.Start.UTC(),
		End:             s.End.UTC(),
		StartLocal:      s.Start.In(loc).Format(localLayout),
		EndLocal:        s.End.In(loc).Format(localLayout),
		DurationMinutes: s.DurationMinutes,
	}
}

func NewSlotDTOs(slots []scheduling.Slot, tz string) []SlotDTO {
	out := make([]SlotDTO, 0, len(slots))
	for _, s := range slots {
		out = append(out, NewSlotDTO(s, tz))
	}
	return out
}
