package errors

import "errors"

// 存储层跨层哨兵错误：由 Repository 返回，Service 层转译为业务错误。

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrDuplicateAssignment 同一班次下同一队员重复指派
var ErrDuplicateAssignment = errors.New("该队员已被指派到此班次")

// ErrSchedulingConflict 队员当日已有时间重叠的班次
var ErrSchedulingConflict = errors.New("该队员当日存在时间冲突的班次")
