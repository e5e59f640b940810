package constant

type Modality string

const (
	ModalityOnline   Modality = "ONLINE"
	ModalityInPerson Modality = "IN_PERSON"
	ModalityLive     Modality = "LIVE"
	ModalityHybrid   Modality = "HYBRID"
)

func (m Modality) RequiresConferencing() bool {
	return m == ModalityLive || m == ModalityHybrid
}

type LessonStatus string

const (
	LessonStatusDraft      LessonStatus = "DRAFT"
	LessonStatusPublished  LessonStatus = "PUBLISHED"
	LessonStatusInProgress LessonStatus = "IN_PROGRESS"
	LessonStatusCompleted  LessonStatus = "COMPLETED"
	LessonStatusCancelled  LessonStatus = "CANCELLED"
)

func (s LessonStatus) Terminal() bool {
	return s == LessonStatusCompleted || s == LessonStatusCancelled
}

type ClassStatus string

const (
	ClassStatusPlanned    ClassStatus = "PLANNED"
	ClassStatusInProgress ClassStatus = "IN_PROGRESS"
	ClassStatusFinished   ClassStatus = "FINISHED"
)

type EnrollmentStatus string

const (
	EnrollmentStatusEnrolled  EnrollmentStatus = "ENROLLED"
	EnrollmentStatusSuspended EnrollmentStatus = "SUSPENDED"
	EnrollmentStatusDropped   EnrollmentStatus = "DROPPED"
	EnrollmentStatusFinished  EnrollmentStatus = "FINISHED"
)

type Role string

const (
	RoleSuperAdmin  Role = "SUPER_ADMIN"
	RoleAdmin       Role = "ADMIN"
	RolePedagogical Role = "PEDAGOGICAL"
	RoleInstructor  Role = "INSTRUCTOR"
	RoleStudent     Role = "STUDENT"
	RoleCompany     Role = "COMPANY"
)

// Staff covers back-office roles allowed to manage lessons regardless of
// authorship.
func (r Role) Staff() bool {
	return r == RoleSuperAdmin || r == RoleAdmin || r == RolePedagogical
}

// Senior covers the two roles allowed to cancel a required lesson that
// already has completed progress.
func (r Role) Senior() bool {
	return r == RoleSuperAdmin || r == RoleAdmin
}

type HistoryAction string

const (
	HistoryActionCreated       HistoryAction = "CREATED"
	HistoryActionEdited        HistoryAction = "EDITED"
	HistoryActionStatusChanged HistoryAction = "STATUS_CHANGED"
	HistoryActionCancelled     HistoryAction = "CANCELLED"
)

type NotificationType string

const (
	NotificationNovaAula           NotificationType = "NOVA_AULA"
	NotificationAulaCancelada      NotificationType = "AULA_CANCELADA"
	NotificationAulaDespublicada   NotificationType = "AULA_DESPUBLICADA"
	NotificationLembreteAula       NotificationType = "LEMBRETE_AULA"
	NotificationLembreteProva      NotificationType = "LEMBRETE_PROVA"
	NotificationProvaEm2Horas      NotificationType = "PROVA_EM_2_HORAS"
	NotificationInstrutorAtribuido NotificationType = "INSTRUTOR_ATRIBUIDO"
	NotificationTurmaIniciada      NotificationType = "TURMA_INICIADA"
	NotificationTurmaEncerrada     NotificationType = "TURMA_ENCERRADA"
)

type NotificationPriority string

const (
	PriorityNormal NotificationPriority = "NORMAL"
	PriorityHigh   NotificationPriority = "HIGH"
	PriorityUrgent NotificationPriority = "URGENT"
)

type AttendanceKind string

const (
	AttendanceEntry AttendanceKind = "entry"
	AttendanceExit  AttendanceKind = "exit"
)

type AgendaEventType string

const (
	AgendaEventLesson   AgendaEventType = "lesson"
	AgendaEventExam     AgendaEventType = "exam"
	AgendaEventBirthday AgendaEventType = "birthday"
	AgendaEventClass    AgendaEventType = "class"
)

// Color returns the fixed display color for the agenda event type.
func (t AgendaEventType) Color() string {
	switch t {
	case AgendaEventLesson:
		return "#3788d8"
	case AgendaEventExam:
		return "#d83737"
	case AgendaEventBirthday:
		return "#d8a837"
	case AgendaEventClass:
		return "#37d87c"
	}
	return "#808080"
}

type Environment string

const (
	EnvironmentProduction Environment = "production"
	EnvironmentStaging    Environment = "staging"
	EnvironmentDevelop    Environment = "develop"
)

func (e Environment) String() string {
	return string(e)
}
