package xerrors

var (
	// ErrEmptyData 输入数据为空。
	ErrEmptyData = New(ErrInvalidArg, 400001, "empty data", "input data must not be empty", nil)
	// ErrInvalidInput 输入格式错误。
	ErrInvalidInput = New(ErrInvalidArg, 400002, "invalid input", "check your input parameters", nil)
	// ErrInvalidOptionType 无效的期权类型。
	ErrInvalidOptionType = New(ErrInvalidArg, 400004, "invalid option type", "supported types: call, put", nil)
	// ErrDimMismatch 维度不匹配.
	ErrDimMismatch = New(ErrInvalidArg, 400007, "dimension mismatch", "matrix or vector dimensions do not match", nil)
	// ErrNotSquare 不是方阵.
	ErrNotSquare = New(ErrInvalidArg, 400008, "matrix must be square", "input matrix is not square", nil)
	// ErrNotPositiveDefinite 不是正定矩阵.
	ErrNotPositiveDefinite = New(ErrInvalidArg, 400009, "matrix is not positive definite", "input matrix must be positive definite", nil)

	// ErrInvalidParameter 模拟参数非法（价格、期限、步数或路径数）。
	ErrInvalidParameter = New(ErrInvalidArg, 400101, "invalid simulation parameter", "S0, T must be positive; steps and paths must be at least 1", nil)
	// ErrInvalidContract 合约参数非法。
	ErrInvalidContract = New(ErrInvalidArg, 400102, "invalid contract", "strike and dt must be positive", nil)
	// ErrInvalidPathData 路径矩阵与合约不匹配。
	ErrInvalidPathData = New(ErrInvalidArg, 400103, "invalid path data", "path ensemble shape does not match the contract", nil)
	// ErrSingularMatrix 最小二乘系统秩亏。
	ErrSingularMatrix = New(ErrInternal, 500003, "singular matrix", "least squares system is rank deficient", nil)
	// ErrRegressionDegenerate 价内样本不足以拟合所需阶数。
	ErrRegressionDegenerate = New(ErrInternal, 500101, "regression degenerate", "not enough distinct in-the-money points for the polynomial degree", nil)
	// ErrCacheMiss 缓存未命中。
	ErrCacheMiss = New(ErrNotFound, 404001, "cache miss", "key not found in cache", nil)
)
