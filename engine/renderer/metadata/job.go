package metadata

/** @brief Runs the job body with the task input, returning the result handed to OnComplete. */
type JobStart func(params interface{}) (interface{}, error)

/** @brief Invoked with the job result when the job succeeds. */
type JobOnComplete func(result interface{})

/** @brief Invoked with the job error when the job fails. */
type JobOnFailure func(err error)

/**
 * @brief Describes a job to be run.
 */
type JobTask struct {
	/** @brief Name used in logs. */
	Name string
	/** @brief Data to be passed to the entry point upon execution. */
	InputParams interface{}
	/** @brief Invoked when the job starts. Required. */
	OnStart JobStart
	/** @brief Invoked when the job successfully completes. Optional. */
	OnComplete JobOnComplete
	/** @brief Invoked when the job fails. Optional. */
	OnFailure JobOnFailure
	/** @brief Invoked after OnComplete or OnFailure, whatever the outcome. Optional. */
	OnCompletionCallback func()
}
