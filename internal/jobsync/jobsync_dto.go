package jobsync

type SyncJobsRequest struct {
	JobIDs []string `json:"job_ids" binding:"required,min=1,max=500,dive,uuid"`
}

type SyncPeriodResponse struct {
	Jobs    BatchResult `json:"jobs"`
	Monthly struct {
		Created int `json:"created"`
		Removed int `json:"removed"`
	} `json:"monthly"`
}
