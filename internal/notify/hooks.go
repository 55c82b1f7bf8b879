package notify

import "github.com/sirupsen/logrus"

// Hook 提交后执行的通知动作
// 事务函数只负责排队,提交成功后由 Runner 在事务边界之外执行
type Hook func() error

// Runner 提交后钩子执行器
type Runner struct {
	logger *logrus.Logger
}

// NewRunner 创建钩子执行器
func NewRunner(logger *logrus.Logger) *Runner {
	return &Runner{logger: logger}
}

// Dispatch 异步执行钩子
// 失败只记录日志,调用方已经拿到提交结果,这里不再影响它
func (r *Runner) Dispatch(hooks ...Hook) {
	if len(hooks) == 0 {
		return
	}
	go func() {
		for _, hook := range hooks {
			r.run(hook)
		}
	}()
}

// DispatchSync 同步执行钩子(测试用)
func (r *Runner) DispatchSync(hooks ...Hook) {
	for _, hook := range hooks {
		r.run(hook)
	}
}

func (r *Runner) run(hook Hook) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.WithField("panic", rec).Error("notification hook panicked")
		}
	}()
	if err := hook(); err != nil {
		r.logger.WithError(err).Warn("notification hook failed")
	}
}
