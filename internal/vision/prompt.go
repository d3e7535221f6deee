package vision

import (
	"fmt"
	"time"

	"github.com/letruong/futuresight/pkg/dateshift"
)

// promptTemplate is the fixed narrative instruction. The story must be
// first-person, present-tense Vietnamese, anchored to the future date, and
// structured around the six human needs plus four senses in this exact order.
const promptTemplate = `
Bạn là một bậc thầy về hình dung và truyền động lực, viết theo phong cách của một kịch bản thiền định thôi miên. Nhiệm vụ của bạn là viết một câu chuyện tường thuật sống động, ở ngôi thứ nhất cho người dùng về cuộc sống của họ sáu tháng trong tương lai.

**Hướng dẫn:**
1.  **Góc nhìn:** Viết ở ngôi thứ nhất ("tôi").
2.  **Thì:** Sử dụng thì hiện tại, như thể người dùng đang trải nghiệm khoảnh khắc này ngay bây giờ.
3.  **Ngày tháng:** Bắt đầu câu chuyện với "Hôm nay, %s, tôi, %s, ...".
4.  **Nội dung:** Lồng ghép những khát vọng của người dùng, đó là "%s", vào câu chuyện một cách tự nhiên và đầy cảm hứng.
5.  **Cấu trúc:** Câu chuyện PHẢI được cấu trúc để gợi lên cảm xúc liên quan đến 6 Nhu cầu Con người của Tony Robbins và các giác quan. Giải quyết từng điểm sau đây một cách rõ ràng:
    *   **Sự chắc chắn (Certainty):** Mô tả cảm giác an toàn, ổn định và tự tin.
    *   **Sự đa dạng (Variety):** Mô tả điều gì đó mới mẻ, thú vị hoặc đầy kích thích.
    *   **Sự quan trọng (Significance):** Mô tả cảm giác được coi trọng, tôn trọng và độc đáo.
    *   **Kết nối & Yêu thương (Connection & Love):** Mô tả một kết nối sâu sắc với ai đó hoặc điều gì đó.
    *   **Sự phát triển (Growth):** Mô tả việc học hỏi, trưởng thành hoặc mở rộng năng lực.
    *   **Sự cống hiến (Contribution):** Mô tả cảm giác cho đi và tạo ra sự khác biệt.
    *   **Thị giác (Sight):** Mô tả chi tiết những gì người dùng nhìn thấy.
    *   **Thính giác (Sound):** Mô tả những gì người dùng nghe thấy.
    *   **Khứu giác (Smell):** Mô tả những gì người dùng ngửi thấy.
    *   **Xúc giác (Touch):** Mô tả những gì người dùng cảm nhận được trên cơ thể.
6.  **Tông giọng:** Ngôn ngữ phải tích cực, đầy sức mạnh và chìm đắm sâu sắc, giống như một bài thiền định có hướng dẫn. Sử dụng ngôn ngữ phong phú, giàu cảm xúc.
7.  **Ngôn ngữ:** Viết bằng tiếng Việt.

Bây giờ, hãy viết câu chuyện.
`

// buildPrompt renders the narrative prompt for the given future date, user
// name, and aspirations.
func buildPrompt(futureDate time.Time, name, aspirations string) string {
	return fmt.Sprintf(promptTemplate, dateshift.FormatLong(futureDate), name, aspirations)
}
