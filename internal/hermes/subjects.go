package hermes

const (
	SubjectApplicationsAll = "recruit.application.>"
	SubjectRecruitStats    = "recruit.intake.stats"

	StreamName   = "RECRUIT_EVENTS"
	StreamMaxAge = "720h" // 30 days
)

func SubjectApplicationSubmitted(id string) string {
	return "recruit.application." + id + ".submitted"
}

func SubjectApplicationRescored(id string) string {
	return "recruit.application." + id + ".rescored"
}

func SubjectApplicationStatusChanged(id string) string {
	return "recruit.application." + id + ".status_changed"
}
