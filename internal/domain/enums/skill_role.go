package enums

type SkillRole string

const (
	SkillRoleTeach SkillRole = "Teach"
	SkillRoleLearn SkillRole = "Learn"
)
