package shared

const (
	ProjectID = "fitplan-project" // Overridden by GOOGLE_CLOUD_PROJECT

	TopicProgramGenerated  = "topic-program-generated"
	TopicProgramEdited     = "topic-program-edited"
	TopicProgramPropagated = "topic-program-propagated"
	TopicRecordUpdated     = "topic-record-updated"

	CollectionUsers      = "users"
	CollectionPrograms   = "programs"
	CollectionCalendar   = "calendar_events"
	CollectionRecords    = "personal_records"
	CollectionExecutions = "executions"
	CollectionLocks      = "locks"

	EventTypeProgramGenerated  = "com.fitplan.program.generated"
	EventTypeProgramEdited     = "com.fitplan.program.edited"
	EventTypeProgramPropagated = "com.fitplan.program.propagated"
	EventTypeRecordUpdated     = "com.fitplan.record.updated"
)
