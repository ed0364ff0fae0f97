package domain

type EventTypeCount struct {
	EventType EventType `json:"eventType"`
	Count     int64     `json:"count"`
}

type EventStatusCount struct {
	Status EventStatus `json:"status"`
	Count  int64       `json:"count"`
}

type UserEventCount struct {
	UserID   int64  `json:"userID"`
	FullName string `json:"fullName"`
	Count    int64  `json:"count"`
}

type DepartmentEventStats struct {
	Department string `json:"department"`
	EventCount int64  `json:"eventCount"`
	UserCount  int64  `json:"userCount"`
}

type ScheduleStatistics struct {
	TotalEvents     int64                  `json:"totalEvents"`
	TotalShifts     int64                  `json:"totalShifts"`
	UpcomingEvents  int64                  `json:"upcomingEvents"`
	EventsByType    []EventTypeCount       `json:"eventsByType"`
	EventsByStatus  []EventStatusCount     `json:"eventsByStatus"`
	BusiestUsers    []UserEventCount       `json:"busiestUsers"`
	DepartmentStats []DepartmentEventStats `json:"departmentStats"`
}
