package ports

import "guildhall/internal/domain/guild"

type GuildMetrics interface {
	RecordTick(events []guild.OutcomeEvent)
	RecordCommand(commandType string, ok bool)
	RecordConflict()
	RecordFailure()
}
