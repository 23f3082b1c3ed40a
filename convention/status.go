package convention

// Domain event topics raised by status transitions. READY_TO_SIGN raises
// none: going back to signature is not independently event-worthy.
const (
	TopicConventionSubmitted            = "ConventionSubmittedByBeneficiary"
	TopicConventionPartiallySigned      = "ConventionPartiallySigned"
	TopicConventionFullySigned          = "ConventionFullySigned"
	TopicConventionAcceptedByCounsellor = "ConventionAcceptedByCounsellor"
	TopicConventionAcceptedByValidator  = "ConventionAcceptedByValidator"
	TopicConventionRequiresModification = "ConventionStatusRequiresModification"
	TopicConventionRejected             = "ConventionRejected"
	TopicConventionCancelled            = "ConventionCancelled"
)

var signatoryRoles = []Role{
	RoleBeneficiary,
	RoleEstablishmentRepresentative,
	RoleBeneficiaryRepresentative,
	RoleBeneficiaryCurrentEmployer,
}

// transitionConfig drives the static legality table: who may request the
// target status, from which statuses it is reachable, and which event topic
// announces it.
type transitionConfig struct {
	validRoles           []Role
	validInitialStatuses []Status
	eventTopic           string
}

var transitionConfigs = map[Status]transitionConfig{
	StatusReadyToSign: {
		validRoles:           signatoryRoles,
		validInitialStatuses: []Status{StatusDraft},
		eventTopic:           "",
	},
	StatusPartiallySigned: {
		validRoles:           signatoryRoles,
		validInitialStatuses: []Status{StatusReadyToSign, StatusPartiallySigned},
		eventTopic:           TopicConventionPartiallySigned,
	},
	StatusInReview: {
		validRoles:           signatoryRoles,
		validInitialStatuses: []Status{StatusReadyToSign, StatusPartiallySigned},
		eventTopic:           TopicConventionFullySigned,
	},
	StatusAcceptedByCounsellor: {
		validRoles:           []Role{RoleCounsellor},
		validInitialStatuses: []Status{StatusInReview},
		eventTopic:           TopicConventionAcceptedByCounsellor,
	},
	StatusAcceptedByValidator: {
		validRoles:           []Role{RoleValidator},
		validInitialStatuses: []Status{StatusInReview, StatusAcceptedByCounsellor, StatusAcceptedByValidator},
		eventTopic:           TopicConventionAcceptedByValidator,
	},
	StatusDraft: {
		validRoles: append(append([]Role{}, signatoryRoles...),
			RoleCounsellor, RoleValidator, RoleBackOffice),
		validInitialStatuses: []Status{StatusReadyToSign, StatusPartiallySigned, StatusInReview, StatusAcceptedByCounsellor},
		eventTopic:           TopicConventionRequiresModification,
	},
	StatusRejected: {
		validRoles:           []Role{RoleCounsellor, RoleValidator, RoleBackOffice},
		validInitialStatuses: []Status{StatusReadyToSign, StatusPartiallySigned, StatusInReview, StatusAcceptedByCounsellor},
		eventTopic:           TopicConventionRejected,
	},
	StatusCancelled: {
		validRoles:           []Role{RoleValidator, RoleBackOffice},
		validInitialStatuses: []Status{StatusAcceptedByValidator},
		eventTopic:           TopicConventionCancelled,
	},
}

// AllStatuses and AllRoles enumerate the closed sets, mainly for exhaustive
// table-driven tests.
var AllStatuses = []Status{
	StatusDraft, StatusReadyToSign, StatusPartiallySigned, StatusInReview,
	StatusAcceptedByCounsellor, StatusAcceptedByValidator, StatusRejected, StatusCancelled,
}

var AllRoles = []Role{
	RoleBeneficiary, RoleEstablishmentRepresentative, RoleBeneficiaryRepresentative,
	RoleBeneficiaryCurrentEmployer, RoleCounsellor, RoleValidator, RoleBackOffice,
}

func containsRole(roles []Role, role Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func containsStatus(statuses []Status, status Status) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}
